package compress

import "encoding/binary"

// shuffle transposes src into dst so that byte j of every element lands in
// the j-th plane. Trailing bytes that do not form a whole element are copied
// unchanged. dst and src must have the same length and must not overlap.
func shuffle(dst, src []byte, typeSize int) {
	if typeSize <= 1 {
		copy(dst, src)
		return
	}

	n := len(src) / typeSize
	body := n * typeSize

	if typeSize == 8 {
		shuffle8(dst[:body], src[:body], n)
	} else {
		for i := 0; i < n; i++ {
			elem := src[i*typeSize : i*typeSize+typeSize]
			for j, b := range elem {
				dst[j*n+i] = b
			}
		}
	}

	copy(dst[body:], src[body:])
}

// unshuffle reverses shuffle.
func unshuffle(dst, src []byte, typeSize int) {
	if typeSize <= 1 {
		copy(dst, src)
		return
	}

	n := len(src) / typeSize
	body := n * typeSize

	if typeSize == 8 {
		unshuffle8(dst[:body], src[:body], n)
	} else {
		for i := 0; i < n; i++ {
			elem := dst[i*typeSize : i*typeSize+typeSize]
			for j := range elem {
				elem[j] = src[j*n+i]
			}
		}
	}

	copy(dst[body:], src[body:])
}

// shuffle8 is shuffle for eight-byte elements, the int64 tick and float64 case.
func shuffle8(dst, src []byte, n int) {
	for i := 0; i < n; i++ {
		v := binary.LittleEndian.Uint64(src[i*8:])
		dst[i] = byte(v)
		dst[n+i] = byte(v >> 8)
		dst[2*n+i] = byte(v >> 16)
		dst[3*n+i] = byte(v >> 24)
		dst[4*n+i] = byte(v >> 32)
		dst[5*n+i] = byte(v >> 40)
		dst[6*n+i] = byte(v >> 48)
		dst[7*n+i] = byte(v >> 56)
	}
}

func unshuffle8(dst, src []byte, n int) {
	for i := 0; i < n; i++ {
		v := uint64(src[i]) |
			uint64(src[n+i])<<8 |
			uint64(src[2*n+i])<<16 |
			uint64(src[3*n+i])<<24 |
			uint64(src[4*n+i])<<32 |
			uint64(src[5*n+i])<<40 |
			uint64(src[6*n+i])<<48 |
			uint64(src[7*n+i])<<56
		binary.LittleEndian.PutUint64(dst[i*8:], v)
	}
}
