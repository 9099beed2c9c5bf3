package sortedmap

import (
	"cmp"
	"fmt"
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/arloliu/sermap/errs"
)

var timeType = reflect.TypeFor[time.Time]()

// ticks converts integer-like keys to int64 and back. Integer kinds of any width
// are read through their memory representation, so named types (type Minute int32)
// work too; time.Time maps to Unix nanoseconds in UTC.
type ticks[K any] struct {
	toInt   func(k K) int64
	fromInt func(v int64) K
}

var ticksCache sync.Map // reflect.Type -> any(*ticks[K])

// ticksFor returns the integer view of K, or nil when K is not integer-like.
func ticksFor[K any]() *ticks[K] {
	t := reflect.TypeFor[K]()
	if cached, ok := ticksCache.Load(t); ok {
		tk, _ := cached.(*ticks[K])
		return tk
	}

	tk := buildTicks[K](t)
	ticksCache.Store(t, tk)

	return tk
}

func buildTicks[K any](t reflect.Type) *ticks[K] {
	if t == timeType {
		return &ticks[K]{
			toInt: func(k K) int64 {
				return any(k).(time.Time).UnixNano()
			},
			fromInt: func(v int64) K {
				return any(time.Unix(0, v).UTC()).(K)
			},
		}
	}

	signed := false
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		signed = true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return nil
	}

	size := t.Size()

	return &ticks[K]{
		toInt: func(k K) int64 {
			p := unsafe.Pointer(&k)
			switch size {
			case 1:
				if signed {
					return int64(*(*int8)(p))
				}
				return int64(*(*uint8)(p))
			case 2:
				if signed {
					return int64(*(*int16)(p))
				}
				return int64(*(*uint16)(p))
			case 4:
				if signed {
					return int64(*(*int32)(p))
				}
				return int64(*(*uint32)(p))
			default:
				return *(*int64)(p)
			}
		},
		fromInt: func(v int64) K {
			var k K
			p := unsafe.Pointer(&k)
			switch size {
			case 1:
				*(*uint8)(p) = uint8(v)
			case 2:
				*(*uint16)(p) = uint16(v)
			case 4:
				*(*uint32)(p) = uint32(v)
			default:
				*(*int64)(p) = v
			}

			return k
		},
	}
}

// IsIntegerLike reports whether K can carry regular keys: any integer kind
// (uintptr excluded) or time.Time.
func IsIntegerLike[K any]() bool {
	return ticksFor[K]() != nil
}

// regularStep returns the common positive difference of keys in their int64
// view, and whether keys form such a progression. Fewer than two keys are never
// regular. The step must also be representable as a K.
func regularStep[K any](tk *ticks[K], keys []K) (int64, bool) {
	if tk == nil || len(keys) < 2 {
		return 0, false
	}

	prev := tk.toInt(keys[0])
	step := tk.toInt(keys[1]) - prev
	if step <= 0 || tk.toInt(tk.fromInt(step)) != step {
		return 0, false
	}

	for _, k := range keys[1:] {
		cur := tk.toInt(k)
		if cur-prev != step {
			return 0, false
		}
		prev = cur
	}

	// time.Time outside the UnixNano range does not survive the int64 view
	if reflect.TypeFor[K]() == timeType {
		first, last := any(keys[0]).(time.Time), any(keys[len(keys)-1]).(time.Time)
		if !any(tk.fromInt(tk.toInt(keys[0]))).(time.Time).Equal(first) ||
			!any(tk.fromInt(tk.toInt(keys[len(keys)-1]))).(time.Time).Equal(last) {
			return 0, false
		}
	}

	return step, true
}

// expandRegular writes first + i*step into keys.
func expandRegular[K any](tk *ticks[K], keys []K, first K, step int64) {
	base := tk.toInt(first)
	for i := range keys {
		keys[i] = tk.fromInt(base + int64(i)*step)
	}
}

var comparerCache sync.Map // reflect.Type -> any(func(a, b K) int)

// DefaultComparer returns the natural ordering for K: numeric order for integer
// and float kinds, lexical order for string kinds and chronological order for
// time.Time.
//
// Returns:
//   - func(a, b K) int: Comparer in the cmp.Compare convention
//   - error: errs.ErrNoComparer when K has no natural ordering
func DefaultComparer[K any]() (func(a, b K) int, error) {
	t := reflect.TypeFor[K]()
	if cached, ok := comparerCache.Load(t); ok {
		fn, _ := cached.(func(a, b K) int)
		return fn, nil
	}

	fn := buildComparer[K](t)
	if fn == nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrNoComparer, t)
	}
	comparerCache.Store(t, fn)

	return fn, nil
}

func buildComparer[K any](t reflect.Type) func(a, b K) int {
	if t == timeType {
		return func(a, b K) int {
			return any(a).(time.Time).Compare(any(b).(time.Time))
		}
	}

	if t == nil {
		return nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		tk := ticksFor[K]()
		return func(a, b K) int { return cmp.Compare(tk.toInt(a), tk.toInt(b)) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		tk := ticksFor[K]()
		return func(a, b K) int { return cmp.Compare(uint64(tk.toInt(a)), uint64(tk.toInt(b))) }
	case reflect.Float32:
		return func(a, b K) int {
			return cmp.Compare(*(*float32)(unsafe.Pointer(&a)), *(*float32)(unsafe.Pointer(&b)))
		}
	case reflect.Float64:
		return func(a, b K) int {
			return cmp.Compare(*(*float64)(unsafe.Pointer(&a)), *(*float64)(unsafe.Pointer(&b)))
		}
	case reflect.String:
		return func(a, b K) int {
			return cmp.Compare(*(*string)(unsafe.Pointer(&a)), *(*string)(unsafe.Pointer(&b)))
		}
	default:
		return nil
	}
}
