package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/sermap/errs"
)

// AppendFrameCount appends the frame count prefix of a frame column.
//
// A frame column has the same layout as a text column: a uvarint count followed
// by uvarint-length-prefixed byte frames. Nested arrays and nested maps are
// stored as one frame per element.
func AppendFrameCount(dst []byte, count int) []byte {
	return binary.AppendUvarint(dst, uint64(count))
}

// AppendFrame appends one length-prefixed frame.
func AppendFrame(dst, frame []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(frame)))
	return append(dst, frame...)
}

// DecodeFrames splits a frame column into its frames.
//
// The returned frames alias data.
//
// Returns:
//   - [][]byte: The frames, never nil
//   - error: errs.ErrCorruptEnvelope on malformed input
func DecodeFrames(data []byte) ([][]byte, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad frame count", errs.ErrCorruptEnvelope)
	}
	data = data[n:]

	if count > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d frames claimed in %d bytes", errs.ErrCorruptEnvelope, count, len(data))
	}

	frames := make([][]byte, count)
	for i := range frames {
		length, n := binary.Uvarint(data)
		if n <= 0 || length > uint64(len(data)-n) {
			return nil, fmt.Errorf("%w: frame %d truncated", errs.ErrCorruptEnvelope, i)
		}

		end := n + int(length)
		frames[i] = data[n:end:end]
		data = data[end:]
	}

	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after frames", errs.ErrCorruptEnvelope, len(data))
	}

	return frames, nil
}
