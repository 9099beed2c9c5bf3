package section

import (
	"fmt"
	"math"

	"github.com/arloliu/sermap/endian"
	"github.com/arloliu/sermap/errs"
)

// MapHeader is the 12-byte header of a sorted-map envelope.
//
// The sign bits of the count and version fields carry the regular-key and
// read-only flags, so both flags round-trip independently of each other.
type MapHeader struct {
	// Count is the number of entries, always positive in a valid envelope.
	Count int
	// Version is the map version counter.
	Version int64
	// ValuesOffset is the byte offset of the values block from envelope start.
	ValuesOffset int
	// Regular is set when the keys block holds only the first key and step.
	Regular bool
	// ReadOnly is set when the map was read-only at serialization time.
	ReadOnly bool
}

// NewMapHeader builds the header for an envelope whose keys block is keysLen bytes.
//
// Parameters:
//   - count: Number of entries (1..MaxMapCount)
//   - version: Map version (0..MaxMapCount, at least 1 when readOnly)
//   - regular: Whether keys are stored as a representative pair
//   - readOnly: Whether the map is read-only
//   - keysLen: Length of the compressed keys block
//
// Returns:
//   - MapHeader: Header ready for Put
//   - error: errs.ErrHeaderOverflow if a field does not fit int32, errs.ErrInvalidParams
//     for combinations the sign-bit encoding cannot represent
func NewMapHeader(count int, version int64, regular, readOnly bool, keysLen int) (MapHeader, error) {
	if count <= 0 {
		return MapHeader{}, fmt.Errorf("%w: envelope count must be positive, got %d", errs.ErrInvalidParams, count)
	}

	if count > MaxMapCount {
		return MapHeader{}, fmt.Errorf("%w: count %d", errs.ErrHeaderOverflow, count)
	}

	if version < 0 || version > MaxMapCount {
		return MapHeader{}, fmt.Errorf("%w: version %d", errs.ErrHeaderOverflow, version)
	}

	if readOnly && version == 0 {
		return MapHeader{}, fmt.Errorf("%w: read-only flag needs a non-zero version", errs.ErrInvalidParams)
	}

	offset := int64(MapHeaderSize) + int64(keysLen)
	if keysLen < 0 || offset > math.MaxInt32 {
		return MapHeader{}, fmt.Errorf("%w: keys block of %d bytes", errs.ErrHeaderOverflow, keysLen)
	}

	return MapHeader{
		Count:        count,
		Version:      version,
		ValuesOffset: int(offset),
		Regular:      regular,
		ReadOnly:     readOnly,
	}, nil
}

// CountField returns the signed count as written to the wire.
func (h MapHeader) CountField() int32 {
	if h.Regular {
		return -int32(h.Count)
	}

	return int32(h.Count)
}

// VersionField returns the signed version as written to the wire.
func (h MapHeader) VersionField() int32 {
	if h.ReadOnly {
		return -int32(h.Version)
	}

	return int32(h.Version)
}

// Put writes the header into the first 12 bytes of dst.
func (h MapHeader) Put(dst []byte) {
	_ = dst[MapHeaderSize-1]

	engine := endian.Wire()
	engine.PutUint32(dst[MapCountOffset:], uint32(h.CountField()))
	engine.PutUint32(dst[MapVersionOffset:], uint32(h.VersionField()))
	engine.PutUint32(dst[MapValuesOffsetOffset:], uint32(int32(h.ValuesOffset)))
}

// Bytes serializes the header into a new 12-byte slice.
func (h MapHeader) Bytes() []byte {
	b := make([]byte, MapHeaderSize)
	h.Put(b)

	return b
}

// ParseMapHeader parses and validates the header of a complete envelope.
//
// Parameters:
//   - envelope: The whole envelope, so the values offset can be checked against its length
//
// Returns:
//   - MapHeader: Parsed header with flags decoded from the sign bits
//   - error: errs.ErrCorruptEnvelope if the fields cannot describe envelope
func ParseMapHeader(envelope []byte) (MapHeader, error) {
	if len(envelope) < MapHeaderSize {
		return MapHeader{}, fmt.Errorf("%w: %d bytes is shorter than the map header", errs.ErrCorruptEnvelope, len(envelope))
	}

	engine := endian.Wire()
	countField := int32(engine.Uint32(envelope[MapCountOffset:]))
	versionField := int32(engine.Uint32(envelope[MapVersionOffset:]))
	valuesOffset := int32(engine.Uint32(envelope[MapValuesOffsetOffset:]))

	if countField == 0 || countField == math.MinInt32 {
		return MapHeader{}, fmt.Errorf("%w: count field %d", errs.ErrCorruptEnvelope, countField)
	}

	if versionField == math.MinInt32 {
		return MapHeader{}, fmt.Errorf("%w: version field %d", errs.ErrCorruptEnvelope, versionField)
	}

	if valuesOffset < MapHeaderSize || int(valuesOffset) > len(envelope) {
		return MapHeader{}, fmt.Errorf("%w: values offset %d outside [%d, %d]",
			errs.ErrCorruptEnvelope, valuesOffset, MapHeaderSize, len(envelope))
	}

	h := MapHeader{
		ValuesOffset: int(valuesOffset),
		Regular:      countField < 0,
		ReadOnly:     versionField < 0,
	}

	if h.Regular {
		h.Count = int(-countField)
	} else {
		h.Count = int(countField)
	}

	if h.ReadOnly {
		h.Version = int64(-versionField)
	} else {
		h.Version = int64(versionField)
	}

	return h, nil
}

// KeysBlock returns the keys block of a validated envelope.
func (h MapHeader) KeysBlock(envelope []byte) []byte {
	return envelope[MapKeysOffset:h.ValuesOffset]
}

// ValuesBlock returns the values block of a validated envelope.
func (h MapHeader) ValuesBlock(envelope []byte) []byte {
	return envelope[h.ValuesOffset:]
}
