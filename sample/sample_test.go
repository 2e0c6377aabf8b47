package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/expenses/akumuli-go/endian"
)

func TestNewFloat_TypeTag(t *testing.T) {
	s := NewFloat(1700000000, 1024, 21.5)

	require.Equal(t, FlagParamID|FlagTimestamp|FlagFloat, s.Type)
	require.Zero(t, s.Type&^(FlagParamID|FlagTimestamp|FlagFloat), "no other bits may be set")
	require.Equal(t, HeaderSize, s.Size())

	v, ok := s.Float()
	require.True(t, ok)
	require.Equal(t, 21.5, v)
}

func TestNewResolveRequest(t *testing.T) {
	s := NewResolveRequest()

	require.Equal(t, TypeFloat, s.Type)
	require.Zero(t, s.Timestamp)
	require.Zero(t, s.ParamID)
	require.Zero(t, s.Payload.Float64)
	require.Equal(t, HeaderSize, s.Size())
}

func TestBytes_Layout(t *testing.T) {
	engine := endian.LittleEngine()
	s := NewFloat(0x0102030405060708, 0x1112131415161718, 1.5)

	data := s.Bytes(engine)

	require.Len(t, data, HeaderSize)
	require.Equal(t, uint64(0x0102030405060708), engine.Uint64(data[TimestampOffset:]))
	require.Equal(t, uint64(0x1112131415161718), engine.Uint64(data[ParamIDOffset:]))
	require.Equal(t, math.Float64bits(1.5), engine.Uint64(data[PayloadOffset:]))
	require.Equal(t, TypeFloat, engine.Uint16(data[TypeOffset:]))
	require.Equal(t, uint16(HeaderSize), engine.Uint16(data[SizeOffset:]))
	require.Equal(t, []byte{0, 0, 0, 0}, data[PaddingOffset:HeaderSize])
}

func TestBytes_SizeIncludesTrailingData(t *testing.T) {
	s := Sample{Type: TypeRegular | FlagSAXWord, Payload: Payload{Data: []byte("abcd")}}

	data := s.Bytes(endian.HostEngine())

	require.Len(t, data, HeaderSize+4)
	require.Equal(t, uint16(HeaderSize+4), endian.HostEngine().Uint16(data[SizeOffset:]))
	require.Equal(t, []byte("abcd"), data[HeaderSize:])
}

func TestParse(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.LittleEngine(), endian.BigEngine()} {
		original := NewFloat(42, 7, -3.25)

		parsed, err := Parse(original.Bytes(engine), engine)

		require.NoError(t, err)
		require.Equal(t, original, parsed)
	}
}

func TestParse_Errors(t *testing.T) {
	engine := endian.HostEngine()

	t.Run("short buffer", func(t *testing.T) {
		_, err := Parse(make([]byte, HeaderSize-1), engine)
		require.ErrorIs(t, err, ErrShortBuffer)
	})

	t.Run("size larger than buffer", func(t *testing.T) {
		data := NewFloat(1, 1, 1).Bytes(engine)
		engine.PutUint16(data[SizeOffset:], HeaderSize+8)

		_, err := Parse(data, engine)
		require.ErrorIs(t, err, ErrSizeMismatch)
	})

	t.Run("size smaller than header", func(t *testing.T) {
		data := NewFloat(1, 1, 1).Bytes(engine)
		engine.PutUint16(data[SizeOffset:], 8)

		_, err := Parse(data, engine)
		require.ErrorIs(t, err, ErrSizeMismatch)
	})
}

func TestValidate(t *testing.T) {
	require.NoError(t, NewFloat(1, 2, 3).Validate())

	withData := NewFloat(1, 2, 3)
	withData.Payload.Data = []byte{1}
	require.ErrorIs(t, withData.Validate(), ErrInvalidType)

	huge := Sample{Type: TypeRegular, Payload: Payload{Data: make([]byte, MaxSize)}}
	require.ErrorIs(t, huge.Validate(), ErrTooLarge)
}

func TestFloat_Inactive(t *testing.T) {
	s := Sample{Type: TypeRegular, Payload: Payload{Float64: 9}}

	_, ok := s.Float()
	require.False(t, ok)
	require.True(t, s.Has(TypeRegular))
	require.False(t, s.Has(TypeFloat))
}
