package codec

import (
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/arloliu/sermap/endian"
	"github.com/arloliu/sermap/format"
	"github.com/arloliu/sermap/sortedmap"
)

// TimeWithOffset is a timestamp paired with the UTC offset it was observed in.
// Its encoding is reserved: every codec call involving it fails with
// errs.ErrUnsupportedType.
type TimeWithOffset struct {
	Time   time.Time
	Offset time.Duration
}

var (
	timeType           = reflect.TypeFor[time.Time]()
	timeWithOffsetType = reflect.TypeFor[TimeWithOffset]()
	envelopeType       = reflect.TypeFor[sortedmap.Envelope]()
)

// Strategy describes how values of one type are encoded.
type Strategy struct {
	// Variant is the encoding variant.
	Variant format.Variant
	// TypeSize is the wire size of one element for RawBlittable (8 for DeltaEncoded ticks).
	TypeSize int
	// Pinnable reports that element memory already equals the wire bytes, so a
	// slice can be compressed in place. False for padded layouts and on
	// big-endian hosts.
	Pinnable bool

	fields []field
	// hasBool marks layouts with bool fields, whose wire bytes are normalized
	// on decode and therefore never decoded in place.
	hasBool bool
}

// field is one scalar inside a fixed-layout element.
type field struct {
	offset  uintptr
	size    uintptr // 1, 2, 4 or 8
	boolean bool
}

var strategies sync.Map // reflect.Type -> Strategy

// ResolveStrategy returns the encoding strategy for t. Results are memoized per type.
func ResolveStrategy(t reflect.Type) Strategy {
	if cached, ok := strategies.Load(t); ok {
		st, _ := cached.(Strategy)
		return st
	}

	st := resolve(t)
	strategies.Store(t, st)

	return st
}

// ResolveVariant returns the encoding variant for t.
func ResolveVariant(t reflect.Type) format.Variant {
	return ResolveStrategy(t).Variant
}

// StrategyFor returns the encoding strategy for T.
func StrategyFor[T any]() Strategy {
	return ResolveStrategy(reflect.TypeFor[T]())
}

func resolve(t reflect.Type) Strategy {
	switch {
	case t == nil:
		return Strategy{Variant: format.VariantObjectFallback}
	case t == timeWithOffsetType:
		return Strategy{Variant: format.VariantUnsupported}
	case t == timeType:
		return Strategy{Variant: format.VariantDeltaEncoded, TypeSize: 8}
	case t.Kind() == reflect.String:
		return Strategy{Variant: format.VariantUtf8Text}
	case t.Kind() == reflect.Pointer && t.Implements(envelopeType):
		return Strategy{Variant: format.VariantNestedSortedMap}
	case t.Kind() == reflect.Slice:
		return Strategy{Variant: format.VariantNestedArray}
	}

	fields, ok := blittableFields(t, 0, nil)
	if !ok || t.Size() == 0 {
		return Strategy{Variant: format.VariantObjectFallback}
	}

	var (
		covered uintptr
		hasBool bool
	)
	for _, f := range fields {
		covered += f.size
		hasBool = hasBool || f.boolean
	}

	return Strategy{
		Variant:  format.VariantRawBlittable,
		TypeSize: int(t.Size()),
		Pinnable: endian.NativeIsWire() && covered == t.Size(),
		fields:   fields,
		hasBool:  hasBool,
	}
}

// blittableFields appends the scalar fields of t at base, reporting false when
// t is not a fixed-layout type.
func blittableFields(t reflect.Type, base uintptr, fields []field) ([]field, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return append(fields, field{offset: base, size: 1, boolean: true}), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return append(fields, field{offset: base, size: t.Size()}), true
	case reflect.Complex64, reflect.Complex128:
		half := t.Size() / 2
		return append(fields, field{offset: base, size: half}, field{offset: base + half, size: half}), true
	case reflect.Array:
		elem := t.Elem()
		for i := range t.Len() {
			var ok bool
			if fields, ok = blittableFields(elem, base+uintptr(i)*elem.Size(), fields); !ok {
				return nil, false
			}
		}

		return fields, true
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			var ok bool
			if fields, ok = blittableFields(f.Type, base+f.Offset, fields); !ok {
				return nil, false
			}
		}

		return fields, true
	default:
		return nil, false
	}
}

// marshalElements writes n elements starting at src into dst field by field in
// wire byte order. dst must hold n*TypeSize zeroed bytes; padding stays zero.
func (st Strategy) marshalElements(dst []byte, src unsafe.Pointer, n int) {
	engine := endian.Wire()
	size := uintptr(st.TypeSize)

	for i := range uintptr(n) {
		elem := unsafe.Add(src, i*size)
		out := dst[i*size:]
		for _, f := range st.fields {
			p := unsafe.Add(elem, f.offset)
			switch f.size {
			case 1:
				out[f.offset] = *(*uint8)(p)
			case 2:
				engine.PutUint16(out[f.offset:], *(*uint16)(p))
			case 4:
				engine.PutUint32(out[f.offset:], *(*uint32)(p))
			default:
				engine.PutUint64(out[f.offset:], *(*uint64)(p))
			}
		}
	}
}

// unmarshalElements is the inverse of marshalElements. Any non-zero byte of a
// bool field decodes as true.
func (st Strategy) unmarshalElements(dst unsafe.Pointer, src []byte, n int) {
	engine := endian.Wire()
	size := uintptr(st.TypeSize)

	for i := range uintptr(n) {
		elem := unsafe.Add(dst, i*size)
		in := src[i*size:]
		for _, f := range st.fields {
			p := unsafe.Add(elem, f.offset)
			switch f.size {
			case 1:
				b := in[f.offset]
				if f.boolean && b != 0 {
					b = 1
				}
				*(*uint8)(p) = b
			case 2:
				*(*uint16)(p) = engine.Uint16(in[f.offset:])
			case 4:
				*(*uint32)(p) = engine.Uint32(in[f.offset:])
			default:
				*(*uint64)(p) = engine.Uint64(in[f.offset:])
			}
		}
	}
}
