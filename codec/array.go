package codec

import (
	"fmt"
	"reflect"
	"time"
	"unsafe"

	"github.com/arloliu/sermap/compress"
	"github.com/arloliu/sermap/encoding"
	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/format"
	"github.com/arloliu/sermap/internal/pool"
	"github.com/arloliu/sermap/section"
	"github.com/arloliu/sermap/sortedmap"
)

var tickStrategy = StrategyFor[int64]()

// CompressArray compresses src[start:start+length].
//
// Parameters:
//   - s: Serializer providing the defaults
//   - src: Source slice; must not be mutated during the call
//   - start: First element to compress
//   - length: Number of elements, 0 selects the rest of the slice
//   - opts: Per-call overrides of the serializer defaults
//
// Returns:
//   - []byte: The compressed block, or an empty slice for an empty selection
//   - error: errs.ErrInvalidRange, errs.ErrUnsupportedType, errs.ErrInvalidParams
//     or errs.ErrCompressionFailure
func CompressArray[T any](s *Serializer, src []T, start, length int, opts ...compress.ParamOption) ([]byte, error) {
	return CompressArrayTo(s, src, start, length, CopyToNew, opts...)
}

// CompressArrayTo is CompressArray handing the output to transform instead of
// returning a copy.
func CompressArrayTo[T, R any](s *Serializer, src []T, start, length int, transform Transform[R], opts ...compress.ParamOption) (R, error) {
	var zero R

	if start < 0 || start > len(src) || length < 0 || length > len(src)-start {
		return zero, fmt.Errorf("%w: start %d length %d in slice of %d", errs.ErrInvalidRange, start, length, len(src))
	}

	if length == 0 {
		length = len(src) - start
	}

	if err := checkSupported(reflect.TypeFor[T]()); err != nil {
		return zero, err
	}

	p, err := s.callParams(opts...)
	if err != nil {
		return zero, err
	}

	if length == 0 {
		return transform([]byte{}, 0, true)
	}

	return compressSliceTo(s, reflect.ValueOf(src[start:start+length]), p, transform)
}

// DecompressArray decodes data produced by CompressArray.
//
// Nested arrays do not record nil: a nil inner slice decodes as an empty
// non-nil slice.
//
// Returns:
//   - []T: The elements; an empty non-nil slice for empty data
//   - error: errs.ErrNotCompressed, errs.ErrCorruptBlock, errs.ErrCorruptEnvelope,
//     errs.ErrSizeMismatch or errs.ErrUnsupportedType
func DecompressArray[T any](s *Serializer, data []byte) ([]T, error) {
	rv, err := s.decodeSlice(reflect.TypeFor[[]T](), data)
	if err != nil {
		return nil, err
	}

	out, _ := rv.Interface().([]T)

	return out, nil
}

func checkSupported(t reflect.Type) error {
	if ResolveVariant(t) == format.VariantUnsupported {
		return fmt.Errorf("%w: %v", errs.ErrUnsupportedType, t)
	}

	return nil
}

// compressSliceTo compresses rv into a pooled buffer and hands it to transform.
func compressSliceTo[R any](s *Serializer, rv reflect.Value, p compress.Params, transform Transform[R]) (R, error) {
	buf := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(buf)

	out, err := s.appendSlice(buf.B[:0], rv, p)
	if err != nil {
		var zero R
		return zero, err
	}
	buf.B = out

	return transform(out, len(out), false)
}

// appendSlice compresses the slice rv and appends the block to dst. An empty
// slice appends nothing. p carries the call parameters before any per-variant
// adjustment.
func (s *Serializer) appendSlice(dst []byte, rv reflect.Value, p compress.Params) ([]byte, error) {
	n := rv.Len()
	if n == 0 {
		return dst, nil
	}

	elem := rv.Type().Elem()
	st := ResolveStrategy(elem)

	switch st.Variant {
	case format.VariantRawBlittable:
		p.TypeSize = st.TypeSize
		p.Delta = false

		return s.appendRaw(dst, rv.UnsafePointer(), n, st, p)
	case format.VariantDeltaEncoded:
		return s.appendTimes(dst, unsafe.Slice((*time.Time)(rv.UnsafePointer()), n), p)
	case format.VariantUtf8Text:
		return s.appendText(dst, unsafe.Slice((*string)(rv.UnsafePointer()), n), p)
	case format.VariantNestedArray, format.VariantNestedSortedMap:
		return s.appendNested(dst, rv, st.Variant, p)
	case format.VariantUnsupported:
		return dst, fmt.Errorf("%w: %v", errs.ErrUnsupportedType, elem)
	default:
		payload, err := s.object.Marshal(rv.Interface())
		if err != nil {
			return dst, fmt.Errorf("%s object serializer: %w", s.object.Name(), err)
		}

		return s.bc.AppendBlock(dst, payload, bytesParams(p))
	}
}

// appendRaw compresses n fixed-layout elements at base. Pinnable layouts are
// compressed in place; others are marshaled into a scratch buffer first, which
// produces the same bytes.
func (s *Serializer) appendRaw(dst []byte, base unsafe.Pointer, n int, st Strategy, p compress.Params) ([]byte, error) {
	size := n * st.TypeSize

	if st.Pinnable {
		out := dst
		pinned, err := withPinned(base, func() error {
			var err error
			out, err = s.bc.AppendBlock(dst, unsafe.Slice((*byte)(base), size), p)
			return err
		})
		if pinned {
			return out, err
		}
		s.logger.Debug("element memory could not be pinned, marshaling", "elements", n, "type_size", st.TypeSize)
	}

	scratch := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(scratch)

	buf := scratch.ResizeZeroed(size)
	st.marshalElements(buf, base, n)

	return s.bc.AppendBlock(dst, buf, p)
}

// appendTimes converts times to int64 ticks, forward-differences them when diff
// is enabled and compresses them as 8-byte elements.
func (s *Serializer) appendTimes(dst []byte, times []time.Time, p compress.Params) ([]byte, error) {
	ticks, release := pool.GetInt64Slice(len(times))
	defer release()

	for i, t := range times {
		ticks[i] = t.UnixNano()
	}

	if s.diff {
		encoding.DeltaEncode(ticks, ticks)
	}

	p.TypeSize = tickStrategy.TypeSize
	p.Delta = s.diff

	return s.appendRaw(dst, unsafe.Pointer(unsafe.SliceData(ticks)), len(ticks), tickStrategy, p)
}

func (s *Serializer) appendText(dst []byte, texts []string, p compress.Params) ([]byte, error) {
	enc := encoding.NewTextEncoder()
	defer enc.Release()
	enc.WriteSlice(texts)

	scratch := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(scratch)
	scratch.B = enc.Finish(scratch.B[:0])

	return s.bc.AppendBlock(dst, scratch.B, bytesParams(p))
}

// appendNested compresses every element of rv into its own frame and
// compresses the frame column.
func (s *Serializer) appendNested(dst []byte, rv reflect.Value, variant format.Variant, p compress.Params) ([]byte, error) {
	column := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(column)
	frame := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(frame)

	n := rv.Len()
	column.B = encoding.AppendFrameCount(column.B[:0], n)

	for i := range n {
		var err error
		elem := rv.Index(i)

		if variant == format.VariantNestedSortedMap {
			if elem.IsNil() {
				return dst, fmt.Errorf("%w: element %d", errs.ErrNilMap, i)
			}
			env, _ := elem.Interface().(sortedmap.Envelope)
			frame.B, err = s.appendEnvelope(frame.B[:0], env, p)
		} else {
			frame.B, err = s.appendSlice(frame.B[:0], elem, p)
		}

		if err != nil {
			return dst, err
		}
		column.B = encoding.AppendFrame(column.B, frame.B)
	}

	return s.bc.AppendBlock(dst, column.B, bytesParams(p))
}

// blockHeader parses the header of a block that must span all of data.
func (s *Serializer) blockHeader(data []byte) (section.BlockHeader, error) {
	h, err := s.bc.Header(data)
	if err != nil {
		return h, err
	}

	if int(h.CBytes) != len(data) {
		return h, fmt.Errorf("%w: block of %d bytes followed by %d trailing bytes",
			errs.ErrCorruptEnvelope, h.CBytes, len(data)-int(h.CBytes))
	}

	return h, nil
}

// decodeSlice decodes a block produced by appendSlice into a new slice of type t.
func (s *Serializer) decodeSlice(t reflect.Type, data []byte) (reflect.Value, error) {
	if len(data) == 0 {
		return reflect.MakeSlice(t, 0, 0), nil
	}

	elem := t.Elem()
	st := ResolveStrategy(elem)

	switch st.Variant {
	case format.VariantRawBlittable:
		h, err := s.blockHeader(data)
		if err != nil {
			return reflect.Value{}, err
		}

		n, err := elementCount(h, st.TypeSize)
		if err != nil {
			return reflect.Value{}, err
		}

		out := reflect.MakeSlice(t, n, n)
		if err := s.decodeRawInto(out.UnsafePointer(), n, st, data); err != nil {
			return reflect.Value{}, err
		}

		return out, nil
	case format.VariantDeltaEncoded:
		times, err := s.decodeTimes(data)
		if err != nil {
			return reflect.Value{}, err
		}

		return reflect.ValueOf(times).Convert(t), nil
	case format.VariantUtf8Text:
		payload, err := s.decompressStrict(data)
		if err != nil {
			return reflect.Value{}, err
		}

		texts, err := encoding.DecodeText(payload)
		if err != nil {
			return reflect.Value{}, err
		}

		out := reflect.MakeSlice(t, len(texts), len(texts))
		if len(texts) > 0 {
			copy(unsafe.Slice((*string)(out.UnsafePointer()), len(texts)), texts)
		}

		return out, nil
	case format.VariantNestedArray, format.VariantNestedSortedMap:
		return s.decodeNested(t, st.Variant, data)
	case format.VariantUnsupported:
		return reflect.Value{}, fmt.Errorf("%w: %v", errs.ErrUnsupportedType, elem)
	default:
		payload, err := s.decompressStrict(data)
		if err != nil {
			return reflect.Value{}, err
		}

		ptr := reflect.New(t)
		if err := s.object.Unmarshal(payload, ptr.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("%s object serializer: %w", s.object.Name(), err)
		}

		if ptr.Elem().IsNil() {
			return reflect.MakeSlice(t, 0, 0), nil
		}

		return ptr.Elem(), nil
	}
}

func elementCount(h section.BlockHeader, typeSize int) (int, error) {
	if int(h.NBytes)%typeSize != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a multiple of element size %d", errs.ErrSizeMismatch, h.NBytes, typeSize)
	}

	if h.TypeSize != 0 && int(h.TypeSize) != typeSize {
		return 0, fmt.Errorf("%w: block element size %d, want %d", errs.ErrSizeMismatch, h.TypeSize, typeSize)
	}

	return int(h.NBytes) / typeSize, nil
}

// decompressStrict decodes a block that must span all of data.
func (s *Serializer) decompressStrict(data []byte) ([]byte, error) {
	if _, err := s.blockHeader(data); err != nil {
		return nil, err
	}

	return s.bc.Decompress(data)
}

// decodeRawInto decodes n fixed-layout elements into the memory at base.
func (s *Serializer) decodeRawInto(base unsafe.Pointer, n int, st Strategy, data []byte) error {
	size := n * st.TypeSize

	if st.Pinnable && !st.hasBool {
		pinned, err := withPinned(base, func() error {
			_, err := s.bc.DecompressInto(data, unsafe.Slice((*byte)(base), size))
			return err
		})
		if pinned {
			return err
		}
	}

	scratch := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(scratch)

	buf := scratch.Resize(size)
	if _, err := s.bc.DecompressInto(data, buf); err != nil {
		return err
	}
	st.unmarshalElements(base, buf, n)

	return nil
}

// decodeTimes decodes int64 ticks and reverses the delta transform when the
// block header says it was applied.
func (s *Serializer) decodeTimes(data []byte) ([]time.Time, error) {
	h, err := s.blockHeader(data)
	if err != nil {
		return nil, err
	}

	n, err := elementCount(h, tickStrategy.TypeSize)
	if err != nil {
		return nil, err
	}

	ticks, release := pool.GetInt64Slice(n)
	defer release()

	if n > 0 {
		if err := s.decodeRawInto(unsafe.Pointer(unsafe.SliceData(ticks)), n, tickStrategy, data); err != nil {
			return nil, err
		}
	}

	if h.HasDelta() {
		encoding.DeltaDecode(ticks, ticks)
	}

	times := make([]time.Time, n)
	for i, tick := range ticks {
		times[i] = time.Unix(0, tick).UTC()
	}

	return times, nil
}

func (s *Serializer) decodeNested(t reflect.Type, variant format.Variant, data []byte) (reflect.Value, error) {
	payload, err := s.decompressStrict(data)
	if err != nil {
		return reflect.Value{}, err
	}

	frames, err := encoding.DecodeFrames(payload)
	if err != nil {
		return reflect.Value{}, err
	}

	elem := t.Elem()
	out := reflect.MakeSlice(t, len(frames), len(frames))

	for i, frame := range frames {
		if variant == format.VariantNestedSortedMap {
			m := reflect.New(elem.Elem())
			env, _ := m.Interface().(sortedmap.Envelope)
			if err := s.decodeEnvelope(env, frame); err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(m)

			continue
		}

		v, err := s.decodeSlice(elem, frame)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(v)
	}

	return out, nil
}
