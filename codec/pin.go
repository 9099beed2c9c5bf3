package codec

import (
	"runtime"
	"unsafe"
)

// withPinned pins the object holding ptr for the duration of fn and unpins it
// on every exit path. It reports false without calling fn when ptr cannot be
// pinned.
func withPinned(ptr unsafe.Pointer, fn func() error) (bool, error) {
	var pinner runtime.Pinner
	defer pinner.Unpin()

	if !tryPin(&pinner, ptr) {
		return false, nil
	}

	return true, fn()
}

func tryPin(pinner *runtime.Pinner, ptr unsafe.Pointer) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	pinner.Pin(ptr)

	return true
}
