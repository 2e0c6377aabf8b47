package compress

import "github.com/expenses/akumuli-go/format"

// noneCodec stores payloads as is.
type noneCodec struct{}

func (noneCodec) Type() format.CompressionType { return format.CompressionNone }

func (noneCodec) Compress(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}

func (noneCodec) Decompress(dst, src []byte, limit int) ([]byte, error) {
	if err := checkLimit(limit); err != nil {
		return dst, err
	}
	if len(src) > limit {
		return dst, ErrOutputLimit
	}

	return append(dst, src...), nil
}
