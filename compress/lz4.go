package compress

import (
	"fmt"
	"sync"

	"github.com/arloliu/sermap/format"
	"github.com/pierrec/lz4/v4"
)

// lz4HCMinLevel is the first level served by the high-compression LZ4 variant.
const (
	lz4HCMinLevel = 7

	// lz4MaxRatio bounds LZ4 block expansion: each extra match length byte adds
	// at most 255 output bytes.
	lz4MaxRatio = 255
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

var lz4HCLevels = [...]lz4.CompressionLevel{
	lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
	lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// LZ4Compressor is the fast method. Levels below 7 use the LZ4 block compressor,
// levels 7-9 use LZ4 HC with the matching depth.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
//
// Returns:
//   - LZ4Compressor: New LZ4 compressor instance
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Type returns format.CompressionLZ4.
func (c LZ4Compressor) Type() format.CompressionType {
	return format.CompressionLZ4
}

// Compress appends the LZ4 block encoding of src to dst.
//
// Uses a pooled lz4.Compressor below level 7 and a CompressorHC otherwise.
//
// Parameters:
//   - dst: Destination slice to append to
//   - src: Input data to compress
//   - level: Compression level 1-9
//
// Returns:
//   - []byte: dst extended by the compressed data
//   - error: errIncompressible when LZ4 cannot shrink src, or a codec error
func (c LZ4Compressor) Compress(dst, src []byte, level int) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	bound := lz4.CompressBlockBound(len(src))
	dst = grow(dst, bound)
	out := dst[len(dst) : len(dst)+bound]

	var (
		n   int
		err error
	)

	if level >= lz4HCMinLevel {
		hc := lz4.CompressorHC{Level: lz4HCLevels[min(level, len(lz4HCLevels))-1]}
		n, err = hc.CompressBlock(src, out)
	} else {
		lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
		n, err = lc.CompressBlock(src, out)
		lz4CompressorPool.Put(lc)
	}

	if err != nil {
		return dst, err
	}

	// lz4 reports incompressible input as a zero-length result
	if n == 0 {
		return dst, errIncompressible
	}

	return dst[:len(dst)+n], nil
}

// Decompress decodes an LZ4 block into dst.
//
// Parameters:
//   - dst: Destination sized to the uncompressed length
//   - src: Compressed data
//
// Returns:
//   - int: Number of bytes written
//   - error: Decoding error or size mismatch
func (c LZ4Compressor) Decompress(dst, src []byte) (int, error) {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return 0, err
	}

	if n != len(dst) {
		return n, fmt.Errorf("lz4 chunk decoded to %d bytes, want %d", n, len(dst))
	}

	return n, nil
}

// DecodedLenBound returns the largest size an LZ4 block of len(src) bytes can
// decode to. LZ4 blocks carry no size of their own.
func (c LZ4Compressor) DecodedLenBound(src []byte) (int, error) {
	return len(src) * lz4MaxRatio, nil
}
