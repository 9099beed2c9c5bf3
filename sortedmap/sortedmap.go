// Package sortedmap provides SortedMap, an ordered key/value container stored as
// two parallel slices.
//
// A SortedMap tracks a version counter bumped by every mutation and can be
// completed into a read-only snapshot. Maps whose integer-like keys form an
// arithmetic progression are reported as regular, which lets codecs store the
// keys as a first key and a step instead of the full key slice.
//
// # Thread Safety
//
// A SortedMap is not safe for concurrent mutation. Completed (read-only) maps
// may be read and serialized from any number of goroutines.
package sortedmap

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/arloliu/sermap/errs"
)

// State carries the metadata restored together with the keys and values.
type State struct {
	// Version is the mutation counter.
	Version int64
	// ReadOnly marks a completed map.
	ReadOnly bool
}

// SortedMap is an ordered map with strictly increasing keys.
type SortedMap[K, V any] struct {
	keys    []K
	values  []V
	compare func(a, b K) int
	version int64

	readOnly bool

	// regular caches IsRegular for regularAt == version
	regular   bool
	regularAt int64
	checked   bool
}

// New creates an empty map ordered by cmp.Compare.
func New[K cmp.Ordered, V any]() *SortedMap[K, V] {
	return &SortedMap[K, V]{compare: cmp.Compare[K]}
}

// NewFunc creates an empty map ordered by compare.
//
// Parameters:
//   - compare: Comparer in the cmp.Compare convention; must not be nil
//   - capacity: Initial capacity of the key and value slices
func NewFunc[K, V any](compare func(a, b K) int, capacity int) *SortedMap[K, V] {
	if compare == nil {
		panic("sortedmap: nil comparer")
	}

	return &SortedMap[K, V]{
		keys:    make([]K, 0, capacity),
		values:  make([]V, 0, capacity),
		compare: compare,
	}
}

// NewDefault creates an empty map ordered by DefaultComparer[K].
//
// Returns:
//   - *SortedMap[K, V]: Empty map
//   - error: errs.ErrNoComparer when K has no natural ordering
func NewDefault[K, V any]() (*SortedMap[K, V], error) {
	compare, err := DefaultComparer[K]()
	if err != nil {
		return nil, err
	}

	return NewFunc[K, V](compare, 0), nil
}

// FromSorted builds a map that takes ownership of keys and values.
//
// Parameters:
//   - keys: Strictly increasing keys
//   - values: Values, same length as keys
//   - compare: Comparer; nil selects DefaultComparer[K]
//   - state: Version and read-only flag to restore
//
// Returns:
//   - *SortedMap[K, V]: The map
//   - error: errs.ErrSizeMismatch, errs.ErrUnsortedKeys or errs.ErrNoComparer
func FromSorted[K, V any](keys []K, values []V, compare func(a, b K) int, state State) (*SortedMap[K, V], error) {
	if compare == nil {
		var err error
		if compare, err = DefaultComparer[K](); err != nil {
			return nil, err
		}
	}

	m := &SortedMap[K, V]{compare: compare}
	if err := m.restore(keys, values, state); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *SortedMap[K, V]) restore(keys []K, values []V, state State) error {
	if len(keys) != len(values) {
		return fmt.Errorf("%w: %d keys, %d values", errs.ErrSizeMismatch, len(keys), len(values))
	}

	for i := 1; i < len(keys); i++ {
		if m.compare(keys[i-1], keys[i]) >= 0 {
			return fmt.Errorf("%w: at index %d", errs.ErrUnsortedKeys, i)
		}
	}

	if keys == nil {
		keys = []K{}
	}
	if values == nil {
		values = []V{}
	}

	m.keys = keys
	m.values = values
	m.version = state.Version
	m.readOnly = state.ReadOnly
	m.checked = false
	m.IsRegular()

	return nil
}

// Len returns the number of entries.
func (m *SortedMap[K, V]) Len() int {
	return len(m.keys)
}

// Version returns the mutation counter.
func (m *SortedMap[K, V]) Version() int64 {
	return m.version
}

// IsReadOnly reports whether the map has been completed.
func (m *SortedMap[K, V]) IsReadOnly() bool {
	return m.readOnly
}

// Complete marks the map read-only and bumps its version, so a completed map
// always has a version of at least 1. Completing twice is a no-op.
func (m *SortedMap[K, V]) Complete() {
	if m.readOnly {
		return
	}
	m.version++
	m.readOnly = true
	m.IsRegular()
}

// Comparer returns the key ordering.
func (m *SortedMap[K, V]) Comparer() func(a, b K) int {
	return m.compare
}

func (m *SortedMap[K, V]) search(key K) (int, bool) {
	return slices.BinarySearchFunc(m.keys, key, m.compare)
}

// Set inserts or replaces the value for key.
//
// Returns:
//   - error: errs.ErrReadOnly for completed maps
func (m *SortedMap[K, V]) Set(key K, value V) error {
	if m.readOnly {
		return errs.ErrReadOnly
	}

	i, found := m.search(key)
	if found {
		m.values[i] = value
	} else {
		m.keys = slices.Insert(m.keys, i, key)
		m.values = slices.Insert(m.values, i, value)
	}
	m.version++

	return nil
}

// Remove deletes key.
//
// Returns:
//   - bool: true if the key was present
//   - error: errs.ErrReadOnly for completed maps
func (m *SortedMap[K, V]) Remove(key K) (bool, error) {
	if m.readOnly {
		return false, errs.ErrReadOnly
	}

	i, found := m.search(key)
	if !found {
		return false, nil
	}

	m.keys = slices.Delete(m.keys, i, i+1)
	m.values = slices.Delete(m.values, i, i+1)
	m.version++

	return true, nil
}

// Get returns the value for key.
func (m *SortedMap[K, V]) Get(key K) (V, bool) {
	i, found := m.search(key)
	if !found {
		var zero V
		return zero, false
	}

	return m.values[i], true
}

// At returns the i-th entry in key order.
func (m *SortedMap[K, V]) At(i int) (K, V) {
	return m.keys[i], m.values[i]
}

// Keys returns a copy of the keys in order.
func (m *SortedMap[K, V]) Keys() []K {
	return slices.Clone(m.keys)
}

// Values returns a copy of the values in key order.
func (m *SortedMap[K, V]) Values() []V {
	return slices.Clone(m.values)
}

// All returns an iterator over entries in key order.
func (m *SortedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range m.keys {
			if !yield(m.keys[i], m.values[i]) {
				return
			}
		}
	}
}

// Clone returns a mutable copy with the same entries and version.
func (m *SortedMap[K, V]) Clone() *SortedMap[K, V] {
	return &SortedMap[K, V]{
		keys:    slices.Clone(m.keys),
		values:  slices.Clone(m.values),
		compare: m.compare,
		version: m.version,
	}
}

// IsRegular reports whether the keys are integer-like and form an arithmetic
// progression of at least two keys with a positive step. The result is cached
// until the next mutation; restored and completed maps are checked eagerly so
// concurrent readers of a read-only map never write the cache.
func (m *SortedMap[K, V]) IsRegular() bool {
	if m.checked && m.regularAt == m.version {
		return m.regular
	}

	_, m.regular = regularStep(ticksFor[K](), m.keys)
	m.regularAt = m.version
	m.checked = true

	return m.regular
}

// Step returns the key step of a regular map in the int64 view of K
// (nanoseconds for time.Time keys).
func (m *SortedMap[K, V]) Step() (int64, bool) {
	return regularStep(ticksFor[K](), m.keys)
}
