// Package fixedmap provides fixed-capacity containers for the bounded
// engine. All storage is allocated by the constructors; inserts past
// capacity fail with ErrFull instead of growing.
package fixedmap

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ErrFull is returned when a container has no room left.
var ErrFull = errors.New("fixed-capacity container full")

// StringHash hashes a key by its string form with xxhash.
func StringHash[K fmt.Stringer](key K) uint64 {
	return xxhash.Sum64String(key.String())
}

// IndexMap is an insertion-ordered map with a fixed capacity and an
// open-addressed (linear probing) index. Entries are never removed.
type IndexMap[K comparable, V any] struct {
	keys   []K
	values []V
	slots  []int32 // entry index + 1; 0 marks an empty slot
	mask   uint64
	hash   func(K) uint64
}

// New returns an IndexMap holding at most capacity entries.
func New[K comparable, V any](capacity int, hash func(K) uint64) *IndexMap[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	size := nextPow2(2 * capacity)
	return &IndexMap[K, V]{
		keys:   make([]K, 0, capacity),
		values: make([]V, 0, capacity),
		slots:  make([]int32, size),
		mask:   uint64(size - 1),
		hash:   hash,
	}
}

// Insert stores value under key and returns the entry index. An existing
// key has its value replaced in place.
func (m *IndexMap[K, V]) Insert(key K, value V) (int, error) {
	slot, found := m.probe(key)
	if found {
		idx := int(m.slots[slot] - 1)
		m.values[idx] = value
		return idx, nil
	}
	if len(m.keys) == cap(m.keys) {
		return -1, ErrFull
	}
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	idx := len(m.keys) - 1
	m.slots[slot] = int32(idx + 1)
	return idx, nil
}

// Get returns the value stored under key.
func (m *IndexMap[K, V]) Get(key K) (V, bool) {
	if p := m.Ptr(key); p != nil {
		return *p, true
	}
	var zero V
	return zero, false
}

// Ptr returns a pointer to the value stored under key, or nil. The pointer
// stays valid for the lifetime of the map.
func (m *IndexMap[K, V]) Ptr(key K) *V {
	slot, found := m.probe(key)
	if !found {
		return nil
	}
	return &m.values[m.slots[slot]-1]
}

// Contains reports whether key is present.
func (m *IndexMap[K, V]) Contains(key K) bool {
	_, found := m.probe(key)
	return found
}

// At returns the entry at insertion index i.
func (m *IndexMap[K, V]) At(i int) (K, *V) {
	return m.keys[i], &m.values[i]
}

func (m *IndexMap[K, V]) Len() int { return len(m.keys) }
func (m *IndexMap[K, V]) Cap() int { return cap(m.keys) }

// probe returns the slot holding key, or the empty slot where it would go.
// The index is at least twice the capacity, so an empty slot always exists.
func (m *IndexMap[K, V]) probe(key K) (int, bool) {
	i := m.hash(key) & m.mask
	for {
		ref := m.slots[i]
		if ref == 0 {
			return int(i), false
		}
		if m.keys[ref-1] == key {
			return int(i), true
		}
		i = (i + 1) & m.mask
	}
}

func nextPow2(n int) int {
	size := 2
	for size < n {
		size <<= 1
	}
	return size
}
