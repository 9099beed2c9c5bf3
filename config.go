package sermap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/sermap/codec"
	"github.com/arloliu/sermap/compress"
	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/fallback"
	"github.com/arloliu/sermap/format"
)

// Config is the file form of the Serializer settings. Zero fields keep the
// codec defaults.
//
// Example:
//
//	level: 5
//	method: zstd
//	shuffle: true
//	threads: 4
//	block_size: 262144
//	checksum: true
//	diff: true
//	object_serializer: gob
type Config struct {
	Level            *int                    `yaml:"level"`
	Method           *format.CompressionType `yaml:"method"`
	Shuffle          *bool                   `yaml:"shuffle"`
	Threads          int                     `yaml:"threads"`
	BlockSize        int                     `yaml:"block_size"`
	Checksum         bool                    `yaml:"checksum"`
	Diff             *bool                   `yaml:"diff"`
	ObjectSerializer string                  `yaml:"object_serializer"`
}

// LoadConfig decodes a YAML Config from r and validates it. Unknown keys are
// rejected. An empty document yields the zero Config.
//
// Returns:
//   - *Config: The decoded configuration
//   - error: A YAML decoding error or errs.ErrInvalidParams
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode sermap config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigFile is LoadConfig reading the file at path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sermap config: %w", err)
	}
	defer f.Close()

	return LoadConfig(f)
}

// Validate checks the ranges a Serializer would reject, so a bad file fails
// at load time.
func (c *Config) Validate() error {
	p := compress.DefaultParams()
	if c.Level != nil {
		p.Level = *c.Level
	}
	if c.Method != nil {
		p.Method = *c.Method
	}
	if c.Threads != 0 {
		p.Threads = c.Threads
	}
	p.BlockSize = c.BlockSize

	if err := p.Validate(); err != nil {
		return err
	}

	if _, err := fallback.ByName(c.ObjectSerializer); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidParams, err)
	}

	return nil
}

// Options converts c into Serializer options.
func (c *Config) Options() ([]codec.Option, error) {
	object, err := fallback.ByName(c.ObjectSerializer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidParams, err)
	}

	opts := []codec.Option{codec.WithObjectSerializer(object)}

	if c.Level != nil {
		opts = append(opts, codec.WithLevel(*c.Level))
	}
	if c.Method != nil {
		opts = append(opts, codec.WithMethod(*c.Method))
	}
	if c.Shuffle != nil {
		opts = append(opts, codec.WithShuffle(*c.Shuffle))
	}
	if c.Threads != 0 {
		opts = append(opts, codec.WithThreads(c.Threads))
	}
	if c.BlockSize != 0 {
		opts = append(opts, codec.WithBlockSize(c.BlockSize))
	}
	if c.Checksum {
		opts = append(opts, codec.WithChecksum(true))
	}
	if c.Diff != nil {
		opts = append(opts, codec.WithDiff(*c.Diff))
	}

	return opts, nil
}

// NewSerializer builds a Serializer from c, with extra options applied last.
func (c *Config) NewSerializer(extra ...codec.Option) (*codec.Serializer, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}

	return codec.New(append(opts, extra...)...)
}
