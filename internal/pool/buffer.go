// Package pool provides reusable byte buffers for page and frame encoding.
package pool

import "sync"

// Default sizes of the shared pools.
const (
	PageBufferDefaultSize  = 1024 * 8   // 8KiB, two default pages
	PageBufferMaxThreshold = 1024 * 256 // 256KiB

	FrameBufferDefaultSize  = 64
	FrameBufferMaxThreshold = 1024 * 4
)

// ByteBuffer is an append-only byte slice that can be reset and reused.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a buffer with the given initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the buffered bytes.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the number of buffered bytes.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset empties the buffer but keeps its memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Write appends data. It never fails.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// ByteBufferPool is a sync.Pool of ByteBuffers.
//
// Buffers that grew past maxThreshold are dropped on Put instead of retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose buffers start at defaultSize.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get returns an empty buffer.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns bb to the pool.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var (
	pagePool  = NewByteBufferPool(PageBufferDefaultSize, PageBufferMaxThreshold)
	framePool = NewByteBufferPool(FrameBufferDefaultSize, FrameBufferMaxThreshold)
)

// GetPageBuffer gets a buffer for encoding a volume page.
func GetPageBuffer() *ByteBuffer {
	return pagePool.Get()
}

// PutPageBuffer releases a buffer obtained from GetPageBuffer.
func PutPageBuffer(bb *ByteBuffer) {
	pagePool.Put(bb)
}

// GetFrameBuffer gets a buffer for encoding an input log frame.
func GetFrameBuffer() *ByteBuffer {
	return framePool.Get()
}

// PutFrameBuffer releases a buffer obtained from GetFrameBuffer.
func PutFrameBuffer(bb *ByteBuffer) {
	framePool.Put(bb)
}
