package format

import (
	"fmt"
	"strings"
)

type (
	CompressionType uint8
	Variant         uint8
)

const (
	CompressionNone   CompressionType = 0x0 // CompressionNone stores data uncompressed.
	CompressionLZ4    CompressionType = 0x1 // CompressionLZ4 is the fast method (LZ4, HC above level 6).
	CompressionS2     CompressionType = 0x2 // CompressionS2 is the balanced method.
	CompressionZstd   CompressionType = 0x3 // CompressionZstd is the high-ratio method.
	CompressionSnappy CompressionType = 0x4 // CompressionSnappy is kept for blocks written by snappy-only readers.
)

// Method aliases named after the trade-off they make.
const (
	MethodFast      = CompressionLZ4
	MethodBalanced  = CompressionS2
	MethodHighRatio = CompressionZstd
)

const (
	VariantRawBlittable    Variant = 0x1 // fixed-layout values, copied as raw memory
	VariantDeltaEncoded    Variant = 0x2 // time values, int64 ticks with forward difference
	VariantUtf8Text        Variant = 0x3 // strings as UTF-8 bytes
	VariantNestedSortedMap Variant = 0x4 // sorted maps, recursively enveloped
	VariantNestedArray     Variant = 0x5 // slices, recursively array-encoded
	VariantObjectFallback  Variant = 0x6 // anything else, through the object serializer
	VariantUnsupported     Variant = 0x7 // reserved types that must fail fast
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionS2:
		return "S2"
	case CompressionZstd:
		return "Zstd"
	case CompressionSnappy:
		return "Snappy"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is a known compression type.
func (c CompressionType) Valid() bool {
	return c <= CompressionSnappy
}

// ParseCompressionType parses a method name. Both algorithm names ("lz4", "zstd")
// and trade-off names ("fast", "balanced", "high-ratio") are accepted.
func ParseCompressionType(name string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none":
		return CompressionNone, nil
	case "lz4", "fast":
		return CompressionLZ4, nil
	case "s2", "balanced":
		return CompressionS2, nil
	case "zstd", "high-ratio", "highratio":
		return CompressionZstd, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression method %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c CompressionType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid compression type: %d", c)
	}

	return []byte(strings.ToLower(c.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CompressionType) UnmarshalText(text []byte) error {
	parsed, err := ParseCompressionType(string(text))
	if err != nil {
		return err
	}
	*c = parsed

	return nil
}

func (v Variant) String() string {
	switch v {
	case VariantRawBlittable:
		return "RawBlittable"
	case VariantDeltaEncoded:
		return "DeltaEncoded"
	case VariantUtf8Text:
		return "Utf8Text"
	case VariantNestedSortedMap:
		return "NestedSortedMap"
	case VariantNestedArray:
		return "NestedArray"
	case VariantObjectFallback:
		return "ObjectFallback"
	case VariantUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}
