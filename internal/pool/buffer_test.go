package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer(t *testing.T) {
	bb := NewByteBuffer(4)

	n, err := bb.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), bb.Bytes())
	require.Equal(t, 5, bb.Len())

	bb.Reset()
	require.Zero(t, bb.Len())
	require.GreaterOrEqual(t, cap(bb.B), 5)
}

func TestByteBufferPool_GetIsEmpty(t *testing.T) {
	p := NewByteBufferPool(16, 0)

	bb := p.Get()
	_, _ = bb.Write([]byte("dirty"))
	p.Put(bb)

	require.Zero(t, p.Get().Len())
}

func TestByteBufferPool_DropsLargeBuffers(t *testing.T) {
	p := NewByteBufferPool(8, 32)

	bb := p.Get()
	_, _ = bb.Write(make([]byte, 64))
	p.Put(bb)

	got := p.Get()
	require.Zero(t, got.Len())
	require.LessOrEqual(t, cap(got.B), 32)
}

func TestByteBufferPool_PutNil(t *testing.T) {
	p := NewByteBufferPool(8, 0)
	require.NotPanics(t, func() { p.Put(nil) })
}

func TestSharedPools(t *testing.T) {
	page := GetPageBuffer()
	require.GreaterOrEqual(t, cap(page.B), 0)
	PutPageBuffer(page)

	frame := GetFrameBuffer()
	require.Zero(t, frame.Len())
	PutFrameBuffer(frame)
}
