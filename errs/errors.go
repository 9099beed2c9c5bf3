// Package errs defines the sentinel errors returned by sermap packages.
//
// Errors are wrapped with context using fmt.Errorf("%w: ...") at the failure site,
// so callers should match them with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrCompressionFailure is returned when a codec fails or produces no output for
	// non-empty input. Compression input is deterministic, so callers should not retry.
	ErrCompressionFailure = errors.New("compression failure")

	// ErrCorruptEnvelope is returned when header fields are inconsistent with the data
	// they describe (wrong values offset, impossible sizes, count mismatches).
	ErrCorruptEnvelope = errors.New("corrupt envelope")

	// ErrCorruptBlock is returned when a compressed block fails structural validation
	// or its checksum. It wraps ErrCorruptEnvelope.
	ErrCorruptBlock = fmt.Errorf("%w: bad compressed block", ErrCorruptEnvelope)

	// ErrNotCompressed is returned by strict decompression when the input carries no
	// recognizable block header.
	ErrNotCompressed = errors.New("input is not a compressed block")

	// ErrUnsupportedType is returned for types whose encoding is reserved but not implemented.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSizeMismatch is returned when a declared size does not match a fixed-layout type.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrInvalidParams is returned for out-of-range compression parameters.
	ErrInvalidParams = errors.New("invalid compression parameters")

	// ErrInvalidRange is returned when start/length select outside the source slice.
	ErrInvalidRange = errors.New("invalid slice range")

	// ErrNilMap is returned when a nil sorted map is passed for compression.
	ErrNilMap = errors.New("sorted map is nil")

	// ErrHeaderOverflow is returned when a count or version does not fit the int32 header fields.
	ErrHeaderOverflow = errors.New("value overflows header field")

	// ErrReadOnly is returned when mutating a sorted map that has been completed.
	ErrReadOnly = errors.New("sorted map is read-only")

	// ErrUnsortedKeys is returned when keys handed to a sorted map constructor are not strictly increasing.
	ErrUnsortedKeys = errors.New("keys are not strictly increasing")

	// ErrNoComparer is returned when no default comparer exists for a key type.
	ErrNoComparer = errors.New("no default comparer for key type")
)
