package encoding

// DeltaEncode writes the forward differences of src into dst.
//
// dst[0] is src[0] (the baseline of the first element is zero) and dst[i] is
// src[i]-src[i-1]. Arithmetic wraps on overflow, which DeltaDecode undoes
// exactly, so any int64 sequence round-trips. dst and src may be the same slice.
//
// Parameters:
//   - dst: Destination with len(dst) >= len(src)
//   - src: Values to difference
func DeltaEncode(dst, src []int64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]

	prev := int64(0)
	for i, v := range src {
		dst[i] = v - prev
		prev = v
	}
}

// DeltaDecode writes the prefix sums of src into dst, reversing DeltaEncode.
// dst and src may be the same slice.
//
// Parameters:
//   - dst: Destination with len(dst) >= len(src)
//   - src: Forward differences
func DeltaDecode(dst, src []int64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]

	acc := int64(0)
	for i, d := range src {
		acc += d
		dst[i] = acc
	}
}
