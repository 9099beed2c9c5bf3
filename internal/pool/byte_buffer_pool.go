package pool

import (
	"sync"
)

const (
	BlockBufferDefaultSize    = 1024 * 64        // 64KiB
	BlockBufferMaxThreshold   = 1024 * 1024 * 16 // 16MiB
	ScratchBufferDefaultSize  = 1024 * 16        // 16KiB
	ScratchBufferMaxThreshold = 1024 * 1024 * 4  // 4MiB
)

// ByteBuffer is a reusable byte slice holder.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Reset empties the buffer but retains the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
//
// Small buffers grow by ScratchBufferDefaultSize, larger ones by 25% of their
// capacity, and never by less than requiredBytes.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := ScratchBufferDefaultSize
	if cap(bb.B) > 4*ScratchBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Resize sets the buffer length to n, reallocating when the capacity is too small.
// Contents are not preserved across a reallocation and new bytes are not zeroed.
func (bb *ByteBuffer) Resize(n int) []byte {
	if n < 0 {
		panic("Resize: negative length")
	}

	if cap(bb.B) < n {
		bb.B = make([]byte, n)
	} else {
		bb.B = bb.B[:n]
	}

	return bb.B
}

// ResizeZeroed is Resize followed by zeroing the whole buffer.
func (bb *ByteBuffer) ResizeZeroed(n int) []byte {
	b := bb.Resize(n)
	clear(b)

	return b
}

// ByteBufferPool is a sync.Pool of ByteBuffers that drops buffers grown past
// maxThreshold so one oversized payload does not pin memory forever.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool of buffers with the given default capacity.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	blockDefaultPool   = NewByteBufferPool(BlockBufferDefaultSize, BlockBufferMaxThreshold)
	scratchDefaultPool = NewByteBufferPool(ScratchBufferDefaultSize, ScratchBufferMaxThreshold)
)

// GetBlockBuffer retrieves a buffer for compressed block output.
func GetBlockBuffer() *ByteBuffer {
	return blockDefaultPool.Get()
}

// PutBlockBuffer returns a block buffer to its pool.
func PutBlockBuffer(bb *ByteBuffer) {
	blockDefaultPool.Put(bb)
}

// GetScratchBuffer retrieves a buffer for intermediate encodings
// (shuffled chunks, marshaled elements, text columns).
func GetScratchBuffer() *ByteBuffer {
	return scratchDefaultPool.Get()
}

// PutScratchBuffer returns a scratch buffer to its pool.
func PutScratchBuffer(bb *ByteBuffer) {
	scratchDefaultPool.Put(bb)
}
