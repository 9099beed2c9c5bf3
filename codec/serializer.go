package codec

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/sermap/compress"
	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/fallback"
	"github.com/arloliu/sermap/format"
	"github.com/arloliu/sermap/internal/options"
)

// Serializer holds the compression defaults and collaborators shared by every
// codec call.
type Serializer struct {
	bc       *compress.BlockCompressor
	defaults compress.Params
	diff     bool
	object   fallback.ObjectSerializer
	logger   *slog.Logger
}

// Option configures a Serializer.
type Option = options.Option[*Serializer]

// New creates a Serializer.
//
// Defaults: level 9, the fast method (LZ4), shuffle on, one thread per CPU,
// delta encoding on, no checksum, JSON fallback and slog.Default().
//
// Parameters:
//   - opts: Configuration options
//
// Returns:
//   - *Serializer: Immutable serializer, safe for concurrent use
//   - error: errs.ErrInvalidParams for out-of-range options
func New(opts ...Option) (*Serializer, error) {
	s := &Serializer{
		defaults: compress.DefaultParams(),
		diff:     true,
		object:   fallback.Default(),
		logger:   slog.Default(),
	}

	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	if err := s.defaults.Validate(); err != nil {
		return nil, err
	}

	s.bc = compress.NewBlockCompressor(s.defaults.Threads)

	return s, nil
}

// WithLevel sets the default compression level (0-9).
func WithLevel(level int) Option {
	return options.New(func(s *Serializer) error {
		if level < compress.MinLevel || level > compress.MaxLevel {
			return fmt.Errorf("%w: level %d not in [%d, %d]", errs.ErrInvalidParams, level, compress.MinLevel, compress.MaxLevel)
		}
		s.defaults.Level = level

		return nil
	})
}

// WithMethod sets the default chunk codec.
func WithMethod(method format.CompressionType) Option {
	return options.New(func(s *Serializer) error {
		if !method.Valid() {
			return fmt.Errorf("%w: unknown method %d", errs.ErrInvalidParams, method)
		}
		s.defaults.Method = method

		return nil
	})
}

// WithShuffle enables or disables the shuffle filter for fixed-layout elements.
func WithShuffle(enabled bool) Option {
	return options.NoError(func(s *Serializer) {
		s.defaults.Shuffle = enabled
	})
}

// WithThreads sets how many chunks are compressed and decompressed concurrently.
func WithThreads(n int) Option {
	return options.New(func(s *Serializer) error {
		if n < 1 {
			return fmt.Errorf("%w: thread count %d must be at least 1", errs.ErrInvalidParams, n)
		}
		s.defaults.Threads = n

		return nil
	})
}

// WithBlockSize sets the chunk size; 0 selects compress.DefaultBlockSize.
func WithBlockSize(size int) Option {
	return options.NoError(func(s *Serializer) {
		s.defaults.BlockSize = size
	})
}

// WithChecksum appends an xxHash64 trailer to every block.
func WithChecksum(enabled bool) Option {
	return options.NoError(func(s *Serializer) {
		s.defaults.Checksum = enabled
	})
}

// WithDiff enables or disables forward differencing of time ticks.
// Blocks record whether the transform was applied, so decoding does not depend
// on this setting.
func WithDiff(enabled bool) Option {
	return options.NoError(func(s *Serializer) {
		s.diff = enabled
	})
}

// WithObjectSerializer sets the serializer used for types without a dedicated encoding.
func WithObjectSerializer(serializer fallback.ObjectSerializer) Option {
	return options.New(func(s *Serializer) error {
		if serializer == nil {
			return fmt.Errorf("%w: nil object serializer", errs.ErrInvalidParams)
		}
		s.object = serializer

		return nil
	})
}

// WithLogger sets the logger for debug records about slow paths and pass-through decoding.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(s *Serializer) {
		if logger != nil {
			s.logger = logger
		}
	})
}

// Params returns the default compression parameters.
func (s *Serializer) Params() compress.Params {
	return s.defaults
}

// Diff reports whether time ticks are forward-differenced.
func (s *Serializer) Diff() bool {
	return s.diff
}

// ObjectSerializer returns the fallback serializer.
func (s *Serializer) ObjectSerializer() fallback.ObjectSerializer {
	return s.object
}

// Compressor returns the block compressor.
func (s *Serializer) Compressor() *compress.BlockCompressor {
	return s.bc
}

// callParams returns the defaults with per-call options applied.
func (s *Serializer) callParams(opts ...compress.ParamOption) (compress.Params, error) {
	return s.defaults.Apply(opts...)
}

// bytesParams adjusts p for opaque byte payloads: no shuffle, one-byte elements.
func bytesParams(p compress.Params) compress.Params {
	p.Shuffle = false
	p.TypeSize = 1
	p.Delta = false

	return p
}

// CompressBytes compresses an opaque byte payload with shuffle off.
//
// Returns:
//   - []byte: The block, or an empty slice for empty src
//   - error: errs.ErrInvalidParams or errs.ErrCompressionFailure
func (s *Serializer) CompressBytes(src []byte, opts ...compress.ParamOption) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	p, err := s.callParams(opts...)
	if err != nil {
		return nil, err
	}

	return s.bc.Compress(src, bytesParams(p))
}

// DecompressBytes decodes a block, passing input that carries no block header
// through unchanged.
//
// Returns:
//   - []byte: The payload, or src itself on pass-through
//   - bool: true when src was a compressed block
//   - error: errs.ErrCorruptBlock when a recognized block fails to decode
func (s *Serializer) DecompressBytes(src []byte) ([]byte, bool, error) {
	out, compressed, err := s.bc.DecompressBytes(src)
	if err == nil && !compressed && len(src) > 0 {
		s.logger.Debug("input is not a compressed block, passing through", "size", len(src))
	}

	return out, compressed, err
}
