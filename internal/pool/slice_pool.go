package pool

import "sync"

var int64SlicePool = sync.Pool{
	New: func() any { return &[]int64{} },
}

// GetInt64Slice retrieves an int64 slice of exactly size elements from the pool.
//
// The contents are not zeroed. The caller must call the returned cleanup function
// (typically with defer) to hand the slice back.
//
// Example:
//
//	ticks, cleanup := pool.GetInt64Slice(len(times))
//	defer cleanup()
func GetInt64Slice(size int) ([]int64, func()) {
	ptr, _ := int64SlicePool.Get().(*[]int64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { int64SlicePool.Put(ptr) }
}
