package codec

// Transform consumes the bytes produced by a codec call.
//
// buf[:n] holds the output. When owned is true the caller may keep buf; when it
// is false buf belongs to a pool and is only valid until Transform returns, so
// the bytes must be copied to outlive the call. A Transform is invoked at most
// once per call.
type Transform[R any] func(buf []byte, n int, owned bool) (R, error)

// CopyToNew returns the output as a slice owned by the caller, copying only
// when buf is not already owned.
func CopyToNew(buf []byte, n int, owned bool) ([]byte, error) {
	if owned {
		return buf[:n:n], nil
	}

	out := make([]byte, n)
	copy(out, buf[:n])

	return out, nil
}

// Share returns buf[:n] without copying. The result is only valid inside the
// enclosing codec call unless the output was owned.
func Share(buf []byte, n int, _ bool) ([]byte, error) {
	return buf[:n], nil
}

// AppendTo returns a Transform that appends the output to dst and returns the
// extended slice.
func AppendTo(dst []byte) Transform[[]byte] {
	return func(buf []byte, n int, _ bool) ([]byte, error) {
		return append(dst, buf[:n]...), nil
	}
}
