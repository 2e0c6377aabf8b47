package compress

import (
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/expenses/akumuli-go/format"
)

var lz4Compressors = sync.Pool{
	New: func() any { return new(lz4.Compressor) },
}

// lz4Codec is the fastest to decode. LZ4 blocks do not record their decoded
// length, so Decompress decodes into a window of exactly limit bytes and
// fails if the block does not fit.
type lz4Codec struct{}

func (lz4Codec) Type() format.CompressionType { return format.CompressionLZ4 }

func (lz4Codec) Compress(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	l := len(dst)
	dst, window := grow(dst, lz4.CompressBlockBound(len(src)))

	c := lz4Compressors.Get().(*lz4.Compressor)
	n, err := c.CompressBlock(src, window)
	lz4Compressors.Put(c)
	if err != nil {
		return dst[:l], err
	}

	return dst[:l+n], nil
}

func (lz4Codec) Decompress(dst, src []byte, limit int) ([]byte, error) {
	if err := checkLimit(limit); err != nil {
		return dst, err
	}
	if len(src) == 0 {
		return dst, nil
	}

	l := len(dst)
	dst, window := grow(dst, limit)
	n, err := lz4.UncompressBlock(src, window)
	if err != nil {
		return dst[:l], err
	}

	return dst[:l+n], nil
}
