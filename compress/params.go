package compress

import (
	"fmt"
	"runtime"

	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/format"
	"github.com/arloliu/sermap/internal/options"
	"github.com/arloliu/sermap/section"
)

const (
	MinLevel     = 0 // level 0 stores the payload uncompressed
	MaxLevel     = 9
	DefaultLevel = 9

	DefaultBlockSize = 256 * 1024       // 256KiB chunks
	MaxBlockSize     = section.MaxChunkSize
)

// DefaultMethod is the method used when none is configured.
const DefaultMethod = format.MethodFast

// Params are the per-call compression parameters. Params is a value type; a
// call never observes changes made after it started.
type Params struct {
	// Level is 0-9. Level 0 produces a memcpy block.
	Level int
	// Method selects the chunk codec.
	Method format.CompressionType
	// Shuffle enables the byte-transpose filter with TypeSize stride.
	Shuffle bool
	// TypeSize is the element size in bytes, at most 255 when Shuffle is set.
	TypeSize int
	// Threads bounds the number of chunks compressed concurrently.
	Threads int
	// BlockSize is the chunk size, 0 selects DefaultBlockSize.
	BlockSize int
	// Checksum appends an xxHash64 trailer of the uncompressed payload.
	Checksum bool
	// Delta marks the payload as forward-differenced int64 ticks. The compressor
	// only records the flag; the transform is applied by the caller.
	Delta bool
}

// ParamOption configures Params for a single call.
type ParamOption = options.Option[*Params]

// DefaultParams returns level 9, the fast method, shuffle on, one-byte elements
// and one thread per CPU.
func DefaultParams() Params {
	return Params{
		Level:    DefaultLevel,
		Method:   DefaultMethod,
		Shuffle:  true,
		TypeSize: 1,
		Threads:  runtime.NumCPU(),
	}
}

// Validate checks that p describes a block this package can write.
//
// Returns:
//   - error: errs.ErrInvalidParams describing the first out-of-range field
func (p Params) Validate() error {
	if p.Level < MinLevel || p.Level > MaxLevel {
		return fmt.Errorf("%w: level %d not in [%d, %d]", errs.ErrInvalidParams, p.Level, MinLevel, MaxLevel)
	}

	if !p.Method.Valid() {
		return fmt.Errorf("%w: unknown method %d", errs.ErrInvalidParams, p.Method)
	}

	if p.TypeSize < 1 {
		return fmt.Errorf("%w: type size %d must be at least 1", errs.ErrInvalidParams, p.TypeSize)
	}

	if p.Shuffle && p.TypeSize > section.MaxShuffleTypeSize {
		return fmt.Errorf("%w: shuffle needs type size <= %d, got %d",
			errs.ErrInvalidParams, section.MaxShuffleTypeSize, p.TypeSize)
	}

	if p.Threads < 1 {
		return fmt.Errorf("%w: thread count %d must be at least 1", errs.ErrInvalidParams, p.Threads)
	}

	if p.BlockSize < 0 || p.BlockSize > MaxBlockSize {
		return fmt.Errorf("%w: block size %d not in [0, %d]", errs.ErrInvalidParams, p.BlockSize, MaxBlockSize)
	}

	return nil
}

// chunkSize returns the chunk size for an n-byte payload. With shuffle the size
// is a multiple of TypeSize so every chunk but the last holds whole elements.
func (p Params) chunkSize(n int) int {
	bs := p.BlockSize
	if bs == 0 {
		bs = DefaultBlockSize
	}

	if p.Shuffle && p.TypeSize > 1 {
		bs -= bs % p.TypeSize
		if bs == 0 {
			bs = p.TypeSize
		}
	}

	if n < bs {
		bs = n
	}

	return bs
}

// Apply returns a copy of p with opts applied, validated.
//
// Parameters:
//   - opts: Per-call options, applied in order
//
// Returns:
//   - Params: The resulting parameters
//   - error: The first option error, or a validation error
func (p Params) Apply(opts ...ParamOption) (Params, error) {
	out := p
	if err := options.Apply(&out, opts...); err != nil {
		return Params{}, err
	}

	if err := out.Validate(); err != nil {
		return Params{}, err
	}

	return out, nil
}

// WithLevel sets the compression level (0-9).
func WithLevel(level int) ParamOption {
	return options.New(func(p *Params) error {
		if level < MinLevel || level > MaxLevel {
			return fmt.Errorf("%w: level %d not in [%d, %d]", errs.ErrInvalidParams, level, MinLevel, MaxLevel)
		}
		p.Level = level

		return nil
	})
}

// WithMethod sets the chunk codec.
func WithMethod(method format.CompressionType) ParamOption {
	return options.New(func(p *Params) error {
		if !method.Valid() {
			return fmt.Errorf("%w: unknown method %d", errs.ErrInvalidParams, method)
		}
		p.Method = method

		return nil
	})
}

// WithShuffle enables or disables the shuffle filter.
func WithShuffle(enabled bool) ParamOption {
	return options.NoError(func(p *Params) {
		p.Shuffle = enabled
	})
}

// WithTypeSize sets the element size in bytes.
func WithTypeSize(size int) ParamOption {
	return options.NoError(func(p *Params) {
		p.TypeSize = size
	})
}

// WithThreads sets the number of chunks compressed concurrently.
func WithThreads(n int) ParamOption {
	return options.New(func(p *Params) error {
		if n < 1 {
			return fmt.Errorf("%w: thread count %d must be at least 1", errs.ErrInvalidParams, n)
		}
		p.Threads = n

		return nil
	})
}

// WithBlockSize sets the chunk size, 0 restores the default.
func WithBlockSize(size int) ParamOption {
	return options.NoError(func(p *Params) {
		p.BlockSize = size
	})
}

// WithChecksum enables the xxHash64 trailer.
func WithChecksum(enabled bool) ParamOption {
	return options.NoError(func(p *Params) {
		p.Checksum = enabled
	})
}

// WithDelta records that the payload is forward-differenced.
func WithDelta(enabled bool) ParamOption {
	return options.NoError(func(p *Params) {
		p.Delta = enabled
	})
}
