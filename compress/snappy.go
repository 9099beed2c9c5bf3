package compress

import (
	"fmt"

	"github.com/arloliu/sermap/format"
	"github.com/golang/snappy"
)

// SnappyCompressor writes plain Snappy blocks. Snappy has no levels.
// snappyMaxRatio bounds Snappy expansion: a 3-byte copy emits at most 64 bytes.
const snappyMaxRatio = 22

type SnappyCompressor struct{}

var _ Codec = (*SnappyCompressor)(nil)

// NewSnappyCompressor creates a new Snappy compressor.
func NewSnappyCompressor() SnappyCompressor {
	return SnappyCompressor{}
}

// Type returns format.CompressionSnappy.
func (c SnappyCompressor) Type() format.CompressionType {
	return format.CompressionSnappy
}

// Compress appends the Snappy block encoding of src to dst.
func (c SnappyCompressor) Compress(dst, src []byte, _ int) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	bound := snappy.MaxEncodedLen(len(src))
	if bound < 0 {
		return dst, fmt.Errorf("snappy: input of %d bytes too large", len(src))
	}

	dst = grow(dst, bound)
	encoded := snappy.Encode(dst[len(dst):len(dst)+bound], src)

	return dst[:len(dst)+len(encoded)], nil
}

// Decompress decodes a Snappy block into dst.
func (c SnappyCompressor) Decompress(dst, src []byte) (int, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return 0, err
	}

	if n != len(dst) {
		return 0, fmt.Errorf("snappy chunk declares %d bytes, want %d", n, len(dst))
	}

	decoded, err := snappy.Decode(dst, src)
	if err != nil {
		return 0, err
	}

	return len(decoded), nil
}

// DecodedLenBound returns the size declared in the Snappy preamble, capped by
// what len(src) bytes can expand to.
func (c SnappyCompressor) DecodedLenBound(src []byte) (int, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return 0, err
	}

	return min(n, len(src)*snappyMaxRatio), nil
}
