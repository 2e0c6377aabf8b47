package compress

import (
	"errors"

	"github.com/klauspost/compress/s2"

	"github.com/expenses/akumuli-go/format"
)

// s2Codec favors speed over ratio. S2 blocks carry their decoded length, so
// the limit is checked before anything is decoded.
type s2Codec struct{}

func (s2Codec) Type() format.CompressionType { return format.CompressionS2 }

func (s2Codec) Compress(dst, src []byte) ([]byte, error) {
	bound := s2.MaxEncodedLen(len(src))
	if bound < 0 {
		return dst, errors.New("compress: s2 source too large")
	}

	l := len(dst)
	dst, window := grow(dst, bound)
	enc := s2.Encode(window, src)

	return dst[:l+len(enc)], nil
}

func (s2Codec) Decompress(dst, src []byte, limit int) ([]byte, error) {
	if err := checkLimit(limit); err != nil {
		return dst, err
	}
	if len(src) == 0 {
		return dst, nil
	}

	n, err := s2.DecodedLen(src)
	if err != nil {
		return dst, err
	}
	if n > limit {
		return dst, ErrOutputLimit
	}

	l := len(dst)
	dst, window := grow(dst, n)
	out, err := s2.Decode(window, src)
	if err != nil {
		return dst[:l], err
	}

	return dst[:l+len(out)], nil
}
