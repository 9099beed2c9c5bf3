package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, cap(bb.B))
}

func TestByteBuffer_AppendAndReset(t *testing.T) {
	bb := NewByteBuffer(16)

	bb.B = append(bb.B, "hello world"...)
	assert.Equal(t, 11, bb.Len())
	assert.Equal(t, []byte("hello world"), bb.B)

	capBefore := cap(bb.B)
	bb.Reset()
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, capBefore, cap(bb.B))
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity is a no-op", func(t *testing.T) {
		bb := NewByteBuffer(100)
		bb.Grow(50)
		assert.Equal(t, 100, cap(bb.B))
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(10)
		bb.B = append(bb.B, make([]byte, 10)...)
		bb.Grow(1)
		assert.Equal(t, 10+ScratchBufferDefaultSize, cap(bb.B))
	})

	t.Run("large buffer grows by a quarter", func(t *testing.T) {
		size := 8 * ScratchBufferDefaultSize
		bb := NewByteBuffer(size)
		bb.B = append(bb.B, make([]byte, size)...)
		bb.Grow(1)
		assert.Equal(t, size+size/4, cap(bb.B))
	})

	t.Run("grows by at least the required bytes", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(3 * ScratchBufferDefaultSize)
		assert.GreaterOrEqual(t, cap(bb.B), 3*ScratchBufferDefaultSize)
	})

	t.Run("preserves data", func(t *testing.T) {
		bb := NewByteBuffer(4)
		bb.B = append(bb.B, []byte("abcd")...)
		bb.Grow(100)
		assert.Equal(t, []byte("abcd"), bb.B)
	})
}

func TestByteBuffer_Resize(t *testing.T) {
	bb := NewByteBuffer(8)

	b := bb.Resize(4)
	assert.Len(t, b, 4)
	assert.Equal(t, 8, cap(bb.B))

	b = bb.Resize(32)
	assert.Len(t, b, 32)
	assert.GreaterOrEqual(t, cap(bb.B), 32)

	for i := range b {
		b[i] = 0xFF
	}
	z := bb.ResizeZeroed(16)
	assert.Equal(t, make([]byte, 16), z)

	assert.Panics(t, func() { bb.Resize(-1) })
}

func TestByteBufferPool_MaxThreshold(t *testing.T) {
	p := NewByteBufferPool(16, 64)

	bb := p.Get()
	bb.Resize(1024)
	p.Put(bb)

	// The oversized buffer must not come back.
	again := p.Get()
	assert.LessOrEqual(t, cap(again.B), 64)
	p.Put(again)

	p.Put(nil)
}

func TestDefaultPools(t *testing.T) {
	block := GetBlockBuffer()
	require.NotNil(t, block)
	assert.Equal(t, 0, block.Len())
	PutBlockBuffer(block)

	scratch := GetScratchBuffer()
	require.NotNil(t, scratch)
	assert.Equal(t, 0, scratch.Len())
	scratch.B = append(scratch.B, []byte("x")...)
	PutScratchBuffer(scratch)

	// Put resets the buffer.
	reused := GetScratchBuffer()
	assert.Equal(t, 0, reused.Len())
	PutScratchBuffer(reused)
}

func TestPool_ConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range 100 {
				bb := GetBlockBuffer()
				bb.B = append(bb.B, []byte{byte(id)}...)
				assert.Equal(t, 1, bb.Len())
				PutBlockBuffer(bb)
			}
		}(i)
	}
	wg.Wait()
}
