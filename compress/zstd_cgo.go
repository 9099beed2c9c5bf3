//go:build gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// Compress appends the Zstandard frame of src to dst using the cgo binding.
// Sermap levels 1-9 are passed through as zstd levels.
func (c ZstdCompressor) Compress(dst, src []byte, level int) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	return gozstd.CompressLevel(dst, src, level), nil
}

// Decompress decodes a Zstandard frame into dst.
func (c ZstdCompressor) Decompress(dst, src []byte) (int, error) {
	decoded, err := gozstd.Decompress(dst[:0], src)
	if err != nil {
		return 0, fmt.Errorf("zstd decompression failed: %w", err)
	}

	if len(decoded) != len(dst) {
		return 0, fmt.Errorf("zstd chunk decoded to %d bytes, want %d", len(decoded), len(dst))
	}

	return copy(dst, decoded), nil
}
