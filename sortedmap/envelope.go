package sortedmap

import (
	"fmt"
	"reflect"

	"github.com/arloliu/sermap/errs"
)

// Envelope is implemented by every *SortedMap instantiation. It exposes a map
// through untyped slices so that codecs can serialize maps nested inside other
// values, where the type parameters are only known at run time.
type Envelope interface {
	Len() int
	Version() int64
	IsReadOnly() bool
	IsRegular() bool
	// KeyType and ValueType return the reflect types of K and V.
	KeyType() reflect.Type
	ValueType() reflect.Type
	// Snapshot returns the backing []K and []V without copying. Callers must not
	// modify them.
	Snapshot() (keys, values any)
	// RegularPair returns []K{first, step} with the step expressed in the key
	// domain, or false when the keys are not regular.
	RegularPair() (pair any, ok bool)
	// Restore replaces the contents with keys ([]K) and values ([]V).
	Restore(keys, values any, state State) error
	// RestoreRegular replaces the contents, regenerating len(values) keys from a
	// pair produced by RegularPair.
	RestoreRegular(pair, values any, state State) error
}

var _ Envelope = (*SortedMap[int64, float64])(nil)

// KeyType returns the reflect type of K.
func (m *SortedMap[K, V]) KeyType() reflect.Type {
	return reflect.TypeFor[K]()
}

// ValueType returns the reflect type of V.
func (m *SortedMap[K, V]) ValueType() reflect.Type {
	return reflect.TypeFor[V]()
}

// Snapshot returns the backing key and value slices.
func (m *SortedMap[K, V]) Snapshot() (keys, values any) {
	return m.keys, m.values
}

// RegularKeys returns the first key and the step as a K, or false when the map
// is not regular.
func (m *SortedMap[K, V]) RegularKeys() (first, step K, ok bool) {
	tk := ticksFor[K]()
	d, ok := regularStep(tk, m.keys)
	if !ok {
		return first, step, false
	}

	return m.keys[0], tk.fromInt(d), true
}

// RegularPair implements Envelope.
func (m *SortedMap[K, V]) RegularPair() (any, bool) {
	first, step, ok := m.RegularKeys()
	if !ok {
		return nil, false
	}

	return []K{first, step}, true
}

// ExpandRegular regenerates count keys first, first+step, ... where step is a K
// produced by RegularKeys.
//
// Returns:
//   - []K: The regenerated keys
//   - error: errs.ErrCorruptEnvelope if K is not integer-like or step is not positive
func ExpandRegular[K any](first, step K, count int) ([]K, error) {
	tk := ticksFor[K]()
	if tk == nil {
		return nil, fmt.Errorf("%w: regular keys of non-integer type %v", errs.ErrCorruptEnvelope, reflect.TypeFor[K]())
	}

	d := tk.toInt(step)
	if d <= 0 {
		return nil, fmt.Errorf("%w: regular key step %d", errs.ErrCorruptEnvelope, d)
	}

	keys := make([]K, count)
	expandRegular(tk, keys, first, d)

	return keys, nil
}

// Restore implements Envelope. A zero SortedMap gets DefaultComparer[K].
func (m *SortedMap[K, V]) Restore(keys, values any, state State) error {
	ks, ok := keys.([]K)
	if !ok {
		return fmt.Errorf("%w: keys are %T, want %v", errs.ErrSizeMismatch, keys, reflect.TypeFor[[]K]())
	}

	vs, ok := values.([]V)
	if !ok {
		return fmt.Errorf("%w: values are %T, want %v", errs.ErrSizeMismatch, values, reflect.TypeFor[[]V]())
	}

	if m.compare == nil {
		compare, err := DefaultComparer[K]()
		if err != nil {
			return err
		}
		m.compare = compare
	}

	return m.restore(ks, vs, state)
}

// RestoreRegular implements Envelope.
func (m *SortedMap[K, V]) RestoreRegular(pair, values any, state State) error {
	p, ok := pair.([]K)
	if !ok || len(p) != 2 {
		return fmt.Errorf("%w: regular key pair is %T", errs.ErrCorruptEnvelope, pair)
	}

	vs, ok := values.([]V)
	if !ok {
		return fmt.Errorf("%w: values are %T, want %v", errs.ErrSizeMismatch, values, reflect.TypeFor[[]V]())
	}

	keys, err := ExpandRegular(p[0], p[1], len(vs))
	if err != nil {
		return err
	}

	return m.Restore(keys, vs, state)
}
