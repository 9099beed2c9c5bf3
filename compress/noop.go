package compress

import (
	"fmt"

	"github.com/arloliu/sermap/format"
)

// NoOpCompressor copies data without compressing it.
//
// Blocks written with CompressionNone never reach the codec because the block
// writer stores them as memcpy blocks, but the codec keeps the registry total and
// is useful as a baseline in benchmarks.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Type returns format.CompressionNone.
func (c NoOpCompressor) Type() format.CompressionType {
	return format.CompressionNone
}

// Compress appends src to dst unchanged.
func (c NoOpCompressor) Compress(dst, src []byte, _ int) ([]byte, error) {
	return append(dst, src...), nil
}

// Decompress copies src into dst.
//
// Returns:
//   - int: Number of bytes copied
//   - error: Size mismatch if len(src) != len(dst)
func (c NoOpCompressor) Decompress(dst, src []byte) (int, error) {
	if len(src) != len(dst) {
		return 0, fmt.Errorf("noop chunk is %d bytes, want %d", len(src), len(dst))
	}

	return copy(dst, src), nil
}

// DecodedLenBound returns len(src).
func (c NoOpCompressor) DecodedLenBound(src []byte) (int, error) {
	return len(src), nil
}
