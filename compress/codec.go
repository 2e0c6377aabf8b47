// Package compress provides the codecs applied to volume page payloads.
//
// A page payload is the delta/varint encoding of a batch of samples. The
// engine compresses it with the codec chosen at construction time and records
// the codec's format.CompressionType in the page header, so pages written with
// different codecs stay readable.
//
// Codecs work on caller-owned buffers. Compress and Decompress append to dst
// and return the extended slice, which lets the page writer reuse pooled
// buffers:
//
//	codec, err := compress.Lookup(format.CompressionZstd)
//	packed, err := codec.Compress(buf[:0], payload)
//	...
//	payload, err = codec.Decompress(nil, packed, maxDecoded)
//
// Decompress never produces more than limit bytes. A page knows its point
// count, which bounds its decoded size, so a corrupted page cannot make the
// reader allocate without bound.
//
// Zstd is implemented with klauspost/compress by default and with
// valyala/gozstd when built with the "gozstd" tag and cgo enabled.
package compress

import (
	"errors"
	"fmt"

	"github.com/expenses/akumuli-go/format"
)

var (
	// ErrOutputLimit is returned when a payload decodes to more bytes than
	// the caller allowed.
	ErrOutputLimit = errors.New("compress: decoded payload exceeds limit")
	// ErrUnknownCodec is returned by Lookup for unregistered types.
	ErrUnknownCodec = errors.New("compress: unknown codec")
)

// Codec compresses and restores page payloads.
//
// Implementations are stateless values, safe for concurrent use.
type Codec interface {
	// Type is the identifier stored in page headers.
	Type() format.CompressionType
	// Compress appends the compressed form of src to dst.
	Compress(dst, src []byte) ([]byte, error)
	// Decompress appends the decompressed form of src to dst. limit must be
	// positive; it bounds the number of bytes appended.
	Decompress(dst, src []byte, limit int) ([]byte, error)
}

var codecs = [...]Codec{
	noneCodec{},
	zstdCodec{},
	s2Codec{},
	lz4Codec{},
}

// Lookup returns the codec registered for ct.
func Lookup(ct format.CompressionType) (Codec, error) {
	for _, c := range codecs {
		if c.Type() == ct {
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, ct)
}

// Types lists the registered codec types in identifier order.
func Types() []format.CompressionType {
	out := make([]format.CompressionType, len(codecs))
	for i, c := range codecs {
		out[i] = c.Type()
	}

	return out
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("compress: invalid output limit %d", limit)
	}

	return nil
}

// grow returns dst with room for n more bytes, plus the window to write
// them into.
func grow(dst []byte, n int) ([]byte, []byte) {
	l := len(dst)
	if cap(dst)-l < n {
		next := make([]byte, l, l+n)
		copy(next, dst)
		dst = next
	}

	return dst, dst[l : l+n]
}
