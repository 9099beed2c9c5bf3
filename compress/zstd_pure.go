//go:build !gozstd

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdDecoderPool pools zstd decoders for reuse to eliminate allocation overhead.
// The klauspost/compress/zstd library is explicitly designed for decoder reuse:
// "The decoder has been designed to operate without allocations after a warmup.
// This means that you should store the decoder for best performance."
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1), // Single-threaded, chunks are already parallel
			zstd.WithDecoderLowmem(false),  // Use more memory for better performance
		)
		if err != nil {
			// This should never happen with valid options
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

// zstdEncoderPools holds one encoder pool per encoder speed, indexed by zstdLevel.
var zstdEncoderPools [4]sync.Pool

var zstdSpeeds = [...]zstd.EncoderLevel{
	zstd.SpeedFastest,
	zstd.SpeedDefault,
	zstd.SpeedBetterCompression,
	zstd.SpeedBestCompression,
}

func init() {
	for i := range zstdEncoderPools {
		speed := zstdSpeeds[i]
		zstdEncoderPools[i].New = func() any {
			encoder, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(speed),
				zstd.WithEncoderConcurrency(1),
				zstd.WithEncoderCRC(false), // blocks carry their own xxHash64 trailer
			)
			if err != nil {
				panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
			}

			return encoder
		}
	}
}

// zstdLevel maps sermap levels 1-9 onto the four klauspost encoder speeds.
func zstdLevel(level int) int {
	switch {
	case level <= 2:
		return 0
	case level <= 5:
		return 1
	case level <= 8:
		return 2
	default:
		return 3
	}
}

// Compress appends the Zstandard frame of src to dst.
// Uses a pooled encoder for the level's speed.
func (c ZstdCompressor) Compress(dst, src []byte, level int) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}

	p := &zstdEncoderPools[zstdLevel(level)]
	encoder, _ := p.Get().(*zstd.Encoder)
	defer p.Put(encoder)

	// EncodeAll is stateless - safe to use with pooled encoder
	return encoder.EncodeAll(src, dst), nil
}

// Decompress decodes a Zstandard frame into dst.
// Uses a pooled decoder for better performance (eliminates allocation overhead).
func (c ZstdCompressor) Decompress(dst, src []byte) (int, error) {
	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	// DecodeAll appends into dst's backing array when it has room
	decoded, err := decoder.DecodeAll(src, dst[:0])
	if err != nil {
		return 0, fmt.Errorf("zstd decompression failed: %w", err)
	}

	if len(decoded) != len(dst) {
		return 0, fmt.Errorf("zstd chunk decoded to %d bytes, want %d", len(decoded), len(dst))
	}

	return copy(dst, decoded), nil
}
