package codec

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	"github.com/arloliu/sermap/endian"
	"github.com/arloliu/sermap/errs"
	"github.com/arloliu/sermap/format"
	"github.com/arloliu/sermap/sortedmap"
)

// Serialize encodes any supported value.
//
// Fixed-layout values become their raw little-endian bytes, time.Time becomes
// 8 bytes of Unix-nanosecond ticks, strings and byte slices are compressed,
// other slices use the array codec, sorted maps the envelope codec, and
// everything else the object serializer.
//
// Returns:
//   - []byte: The encoded value; empty strings, slices and maps encode to an empty slice
//   - error: errs.ErrUnsupportedType for nil and reserved types, or any codec error
func (s *Serializer) Serialize(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", errs.ErrUnsupportedType)
	}

	rv := reflect.ValueOf(v)
	t := rv.Type()
	st := ResolveStrategy(t)

	switch st.Variant {
	case format.VariantRawBlittable:
		tmp := reflect.New(t)
		tmp.Elem().Set(rv)

		out := make([]byte, st.TypeSize)
		st.marshalElements(out, tmp.UnsafePointer(), 1)

		return out, nil
	case format.VariantDeltaEncoded:
		tick, _ := v.(time.Time)
		return endian.Wire().AppendUint64(make([]byte, 0, 8), uint64(tick.UnixNano())), nil
	case format.VariantUtf8Text:
		return s.CompressBytes([]byte(rv.String()))
	case format.VariantNestedArray:
		if rv.Len() == 0 {
			return []byte{}, nil
		}

		return compressSliceTo(s, rv, s.defaults, CopyToNew)
	case format.VariantNestedSortedMap:
		if rv.IsNil() {
			return nil, errs.ErrNilMap
		}

		env, _ := v.(sortedmap.Envelope)
		if env.Len() == 0 {
			return []byte{}, nil
		}

		return s.appendEnvelope(nil, env, s.defaults)
	case format.VariantUnsupported:
		return nil, fmt.Errorf("%w: %v", errs.ErrUnsupportedType, t)
	default:
		return s.SerializeFallback(v)
	}
}

// Deserialize decodes data produced by Serialize into a T.
func Deserialize[T any](s *Serializer, data []byte) (T, error) {
	var out T
	err := s.DeserializeInto(data, &out)

	return out, err
}

// DeserializeInto decodes data produced by Serialize into the value ptr points to.
//
// Strings and byte slices are passed through unchanged when data carries no
// block header.
//
// Returns:
//   - error: errs.ErrSizeMismatch when data does not match a fixed-layout type,
//     errs.ErrUnsupportedType for reserved types or a nil ptr, or any codec error
func (s *Serializer) DeserializeInto(data []byte, ptr any) error {
	rp := reflect.ValueOf(ptr)
	if rp.Kind() != reflect.Pointer || rp.IsNil() {
		return fmt.Errorf("%w: target %T is not a non-nil pointer", errs.ErrUnsupportedType, ptr)
	}

	rv := rp.Elem()
	t := rv.Type()
	st := ResolveStrategy(t)

	switch st.Variant {
	case format.VariantRawBlittable:
		if len(data) != st.TypeSize {
			return fmt.Errorf("%w: %d bytes for %v of size %d", errs.ErrSizeMismatch, len(data), t, st.TypeSize)
		}
		st.unmarshalElements(rp.UnsafePointer(), data, 1)

		return nil
	case format.VariantDeltaEncoded:
		if len(data) != 8 {
			return fmt.Errorf("%w: %d bytes for %v", errs.ErrSizeMismatch, len(data), t)
		}
		rv.Set(reflect.ValueOf(time.Unix(0, int64(endian.Wire().Uint64(data))).UTC()))

		return nil
	case format.VariantUtf8Text:
		payload, _, err := s.DecompressBytes(data)
		if err != nil {
			return err
		}
		rv.SetString(string(payload))

		return nil
	case format.VariantNestedArray:
		if t.Elem().Kind() == reflect.Uint8 {
			payload, compressed, err := s.DecompressBytes(data)
			if err != nil {
				return err
			}
			if !compressed {
				payload = bytes.Clone(payload)
			}
			if payload == nil {
				payload = []byte{}
			}
			// []T with a one-byte element shares the memory layout of []byte
			*(*[]byte)(rp.UnsafePointer()) = payload

			return nil
		}

		out, err := s.decodeSlice(t, data)
		if err != nil {
			return err
		}
		rv.Set(out)

		return nil
	case format.VariantNestedSortedMap:
		m := reflect.New(t.Elem())
		env, _ := m.Interface().(sortedmap.Envelope)
		if err := s.decodeEnvelope(env, data); err != nil {
			return err
		}
		rv.Set(m)

		return nil
	case format.VariantUnsupported:
		return fmt.Errorf("%w: %v", errs.ErrUnsupportedType, t)
	default:
		return s.DeserializeFallback(data, ptr)
	}
}
