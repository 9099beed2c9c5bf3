package compress

import (
	"errors"
	"fmt"

	"github.com/arloliu/sermap/format"
)

// errIncompressible is returned by a codec when its output would not be smaller
// than the input. The block writer stores such chunks raw.
var errIncompressible = errors.New("chunk is incompressible")

// Compressor compresses a single chunk at a given level.
type Compressor interface {
	// Compress appends the compressed form of src to dst and returns the extended slice.
	//
	// Level is in 1..9; codecs without levels ignore it. Implementations may return
	// errIncompressible when the output would not be smaller than src.
	//
	// Memory management:
	//   - dst may be reused if it has enough capacity
	//   - src is not modified
	Compress(dst, src []byte, level int) ([]byte, error)
}

// Decompressor decompresses a single chunk into memory sized by the caller.
type Decompressor interface {
	// Decompress decodes src into dst, which must have exactly the uncompressed
	// length. It returns the number of bytes written.
	//
	// Error conditions:
	//   - Returns error if src is corrupted or was produced by a different codec
	//   - Returns error if the decoded size differs from len(dst)
	Decompress(dst, src []byte) (int, error)

	// DecodedLenBound returns an upper bound of the decoded size of src, read from
	// the codec framing and the codec's maximum expansion ratio without decoding.
	DecodedLenBound(src []byte) (int, error)
}

// Codec combines both compression and decompression capabilities.
//
// Thread Safety: all built-in codecs are stateless or pool their state and are
// safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
	// Type returns the compression type written to block headers.
	Type() format.CompressionType
}

// CompressionStats describes one compressed block.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// OriginalSize is the size of input data before compression
	OriginalSize int64

	// CompressedSize is the size of the whole block including header and trailer
	CompressedSize int64

	// ChunkSize is the chunk size the block was split with
	ChunkSize int64

	// Stored is true when the block body holds the input uncompressed
	Stored bool
}

// CompressionRatio returns the compression ratio (compressed size / original size).
//
// Values less than 1.0 indicate successful compression.
// Values greater than 1.0 indicate header overhead exceeded any savings.
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage.
//
// Returns:
//   - float64: Space savings percentage (negative when the block is larger than its input)
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// CreateCodec is a factory function that creates a Codec based on the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, LZ4, S2, Zstd or Snappy)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionSnappy:
		return NewSnappyCompressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:   NewNoOpCompressor(),
	format.CompressionZstd:   NewZstdCompressor(),
	format.CompressionS2:     NewS2Compressor(),
	format.CompressionLZ4:    NewLZ4Compressor(),
	format.CompressionSnappy: NewSnappyCompressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// grow returns dst with room for n more bytes past its length.
func grow(dst []byte, n int) []byte {
	if cap(dst)-len(dst) >= n {
		return dst
	}

	out := make([]byte, len(dst), len(dst)+n)
	copy(out, dst)

	return out
}
