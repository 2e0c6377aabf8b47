//go:build cgo && gozstd

package compress

import (
	"github.com/valyala/gozstd"

	"github.com/expenses/akumuli-go/format"
)

const zstdLevel = 3

// zstdCodec is backed by libzstd.
type zstdCodec struct{}

func (zstdCodec) Type() format.CompressionType { return format.CompressionZstd }

func (zstdCodec) Compress(dst, src []byte) ([]byte, error) {
	return gozstd.CompressLevel(dst, src, zstdLevel), nil
}

func (zstdCodec) Decompress(dst, src []byte, limit int) ([]byte, error) {
	if err := checkLimit(limit); err != nil {
		return dst, err
	}
	if len(src) == 0 {
		return dst, nil
	}

	l := len(dst)
	out, err := gozstd.Decompress(dst, src)
	if err != nil {
		return dst[:l], err
	}
	if len(out)-l > limit {
		return out[:l], ErrOutputLimit
	}

	return out, nil
}
