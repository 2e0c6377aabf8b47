//go:build !cgo || !gozstd

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/expenses/akumuli-go/format"
)

// Both pools hold stateless EncodeAll/DecodeAll users, so any pooled
// instance can serve any page.
var (
	zstdEncoders = sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(zstd.SpeedDefault),
				zstd.WithEncoderCRC(false), // pages carry an xxhash checksum
			)
			if err != nil {
				panic(fmt.Sprintf("compress: zstd encoder: %v", err))
			}
			return enc
		},
	}
	zstdDecoders = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
			if err != nil {
				panic(fmt.Sprintf("compress: zstd decoder: %v", err))
			}
			return dec
		},
	}
)

// zstdCodec has the best ratio of the built-in codecs.
type zstdCodec struct{}

func (zstdCodec) Type() format.CompressionType { return format.CompressionZstd }

func (zstdCodec) Compress(dst, src []byte) ([]byte, error) {
	enc := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(enc)

	return enc.EncodeAll(src, dst), nil
}

func (zstdCodec) Decompress(dst, src []byte, limit int) ([]byte, error) {
	if err := checkLimit(limit); err != nil {
		return dst, err
	}
	if len(src) == 0 {
		return dst, nil
	}

	var h zstd.Header
	if err := h.Decode(src); err == nil && h.HasFCS && h.FrameContentSize > uint64(limit) { //nolint:gosec
		return dst, ErrOutputLimit
	}

	dec := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(dec)

	l := len(dst)
	out, err := dec.DecodeAll(src, dst)
	if err != nil {
		return dst[:l], fmt.Errorf("compress: zstd: %w", err)
	}
	if len(out)-l > limit {
		return out[:l], ErrOutputLimit
	}

	return out, nil
}
