package encoding

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/internal/pool"
)

// TextEncoder encodes a column of strings.
//
// Layout:
//   - uvarint: number of strings
//   - per string: uvarint byte length followed by the UTF-8 bytes
//
// The count prefix is written by Finish, so strings can be streamed in with
// Write without knowing the total up front.
type TextEncoder struct {
	buf   *pool.ByteBuffer
	count int
}

// NewTextEncoder creates a text encoder backed by a pooled scratch buffer.
//
// Returns:
//   - *TextEncoder: A new encoder; call Release when done
func NewTextEncoder() *TextEncoder {
	return &TextEncoder{buf: pool.GetScratchBuffer()}
}

// Write appends one string.
func (e *TextEncoder) Write(text string) {
	e.buf.Grow(binary.MaxVarintLen64 + len(text))
	e.buf.B = binary.AppendUvarint(e.buf.B, uint64(len(text)))
	e.buf.B = append(e.buf.B, text...)
	e.count++
}

// WriteSlice appends all strings in texts, growing the buffer once.
func (e *TextEncoder) WriteSlice(texts []string) {
	total := 0
	for _, text := range texts {
		total += binary.MaxVarintLen64 + len(text)
	}
	e.buf.Grow(total)

	for _, text := range texts {
		e.buf.B = binary.AppendUvarint(e.buf.B, uint64(len(text)))
		e.buf.B = append(e.buf.B, text...)
	}
	e.count += len(texts)
}

// Len returns the number of strings written.
func (e *TextEncoder) Len() int {
	return e.count
}

// Finish appends the complete column, count prefix included, to dst.
//
// Returns:
//   - []byte: dst extended by the encoded column
func (e *TextEncoder) Finish(dst []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(e.count))

	return append(dst, e.buf.B...)
}

// Release returns the buffer to the pool. The encoder must not be used afterwards.
func (e *TextEncoder) Release() {
	if e.buf != nil {
		pool.PutScratchBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// TextDecoder reads a column written by TextEncoder.
type TextDecoder struct {
	data  []byte
	count int
}

// NewTextDecoder parses the count prefix of a text column.
//
// Returns:
//   - TextDecoder: Decoder positioned at the first string
//   - error: errs.ErrCorruptEnvelope if the prefix is malformed or implausible
func NewTextDecoder(data []byte) (TextDecoder, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return TextDecoder{}, fmt.Errorf("%w: bad text column count", errs.ErrCorruptEnvelope)
	}

	// every string needs at least its one-byte length prefix
	if count > uint64(len(data)-n) {
		return TextDecoder{}, fmt.Errorf("%w: text column claims %d strings in %d bytes",
			errs.ErrCorruptEnvelope, count, len(data)-n)
	}

	return TextDecoder{data: data[n:], count: int(count)}, nil
}

// Len returns the number of strings in the column.
func (d TextDecoder) Len() int {
	return d.count
}

// All returns an iterator over the strings of the column.
//
// Iteration stops early and sets *errp if the column is truncated. Each yielded
// string is a copy and does not alias the input.
func (d TextDecoder) All(errp *error) iter.Seq[string] {
	return func(yield func(string) bool) {
		data := d.data
		for i := 0; i < d.count; i++ {
			length, n := binary.Uvarint(data)
			if n <= 0 || length > uint64(len(data)-n) {
				*errp = fmt.Errorf("%w: text column truncated at string %d", errs.ErrCorruptEnvelope, i)
				return
			}

			end := n + int(length)
			if !yield(string(data[n:end])) {
				return
			}
			data = data[end:]
		}
	}
}

// DecodeText decodes a whole text column.
//
// Returns:
//   - []string: The strings, never nil
//   - error: errs.ErrCorruptEnvelope on malformed input
func DecodeText(data []byte) ([]string, error) {
	dec, err := NewTextDecoder(data)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, dec.Len())
	for s := range dec.All(&err) {
		out = append(out, s)
	}

	if err != nil {
		return nil, err
	}

	return out, nil
}
