// Package sermap provides type-directed binary serialization for sorted maps,
// slices and scalar values.
//
// Values are converted into self-describing compact byte sequences: fixed-layout
// element arrays are block-compressed with a byte-shuffle filter, timestamps are
// delta-encoded before compression, strings are stored as a length-prefixed UTF-8
// column and sorted maps are wrapped in a 12-byte envelope whose sign bits carry
// the read-only and regular-keys flags.
//
// # Basic Usage
//
//	m := sortedmap.New[int64, float64]()
//	m.Set(0, 1.5)
//	m.Set(60, 2.5)
//	m.Complete()
//
//	data, err := sermap.CompressMap(m)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	restored, err := sermap.DecompressMap[int64, float64](data)
//
// Arrays:
//
//	data, err := sermap.CompressArray(values)
//	values, err = sermap.DecompressArray[float64](data)
//
// # Package Structure
//
// This package provides top-level wrappers around a process-wide codec.Serializer
// built with the default settings. Use the codec package directly to configure
// compression level, method, threads or the object serializer, or load a Config
// from YAML.
package sermap

import (
	"sync"

	"github.com/arloliu/sermap/codec"
	"github.com/arloliu/sermap/compress"
	"github.com/arloliu/sermap/sortedmap"
)

var (
	defaultOnce       sync.Once
	defaultSerializer *codec.Serializer
)

// Default returns the process-wide Serializer with the default settings:
// level 9, LZ4, shuffle on, delta on, JSON fallback and one thread per CPU.
func Default() *codec.Serializer {
	defaultOnce.Do(func() {
		s, err := codec.New()
		if err != nil {
			// the defaults always validate
			panic(err)
		}
		defaultSerializer = s
	})

	return defaultSerializer
}

// New creates a Serializer with custom options.
//
// Available options:
//   - codec.WithLevel(0..9)
//   - codec.WithMethod(format.CompressionNone|LZ4|S2|Zstd|Snappy)
//   - codec.WithShuffle(true|false)
//   - codec.WithThreads(n)
//   - codec.WithBlockSize(bytes)
//   - codec.WithChecksum(true|false)
//   - codec.WithDiff(true|false)
//   - codec.WithObjectSerializer(fallback.JSON{}|fallback.Gob{})
//   - codec.WithLogger(logger)
//
// Example:
//
//	s, err := sermap.New(
//	    codec.WithMethod(format.CompressionZstd),
//	    codec.WithLevel(5),
//	)
func New(opts ...codec.Option) (*codec.Serializer, error) {
	return codec.New(opts...)
}

// CompressArray compresses src with the default Serializer.
func CompressArray[T any](src []T, opts ...compress.ParamOption) ([]byte, error) {
	return codec.CompressArray(Default(), src, 0, len(src), opts...)
}

// DecompressArray decodes data produced by CompressArray with the default Serializer.
func DecompressArray[T any](data []byte) ([]T, error) {
	return codec.DecompressArray[T](Default(), data)
}

// CompressMap serializes m with the default Serializer.
func CompressMap[K, V any](m *sortedmap.SortedMap[K, V], opts ...compress.ParamOption) ([]byte, error) {
	return codec.CompressMap(Default(), m, opts...)
}

// DecompressMap decodes data produced by CompressMap with the default Serializer.
func DecompressMap[K, V any](data []byte) (*sortedmap.SortedMap[K, V], error) {
	return codec.DecompressMap[K, V](Default(), data)
}

// Serialize encodes v with the default Serializer.
func Serialize(v any) ([]byte, error) {
	return Default().Serialize(v)
}

// Deserialize decodes data produced by Serialize with the default Serializer.
func Deserialize[T any](data []byte) (T, error) {
	return codec.Deserialize[T](Default(), data)
}
