package compress

import (
	"fmt"

	"github.com/arloliu/sermap/format"
	"github.com/klauspost/compress/s2"
)

// S2Compressor is the balanced method. Levels 1-3 use s2.Encode, 4-6
// s2.EncodeBetter and 7-9 s2.EncodeBest.
// s2MaxRatio bounds S2 expansion: a 5-byte repeat emits at most 16842756 bytes.
const s2MaxRatio = 16842756 / 5

type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Type returns format.CompressionS2.
func (c S2Compressor) Type() format.CompressionType {
	return format.CompressionS2
}

// Compress appends the S2 block encoding of src to dst.
func (c S2Compressor) Compress(dst, src []byte, level int) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	bound := s2.MaxEncodedLen(len(src))
	if bound < 0 {
		return dst, fmt.Errorf("s2: input of %d bytes too large", len(src))
	}

	dst = grow(dst, bound)
	out := dst[len(dst) : len(dst)+bound]

	var encoded []byte
	switch {
	case level <= 3:
		encoded = s2.Encode(out, src)
	case level <= 6:
		encoded = s2.EncodeBetter(out, src)
	default:
		encoded = s2.EncodeBest(out, src)
	}

	return dst[:len(dst)+len(encoded)], nil
}

// Decompress decodes an S2 block into dst.
func (c S2Compressor) Decompress(dst, src []byte) (int, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return 0, err
	}

	if n != len(dst) {
		return 0, fmt.Errorf("s2 chunk declares %d bytes, want %d", n, len(dst))
	}

	decoded, err := s2.Decode(dst, src)
	if err != nil {
		return 0, err
	}

	return len(decoded), nil
}

// DecodedLenBound returns the size declared in the S2 preamble, capped by what
// len(src) bytes can expand to.
func (c S2Compressor) DecodedLenBound(src []byte) (int, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return 0, err
	}

	return min(n, len(src)*s2MaxRatio), nil
}
