// Package weakmap associates values with pointer identities without keeping
// the keys alive. An entry disappears once its key has been collected.
//
// Values must not hold strong references back to their key, otherwise the
// key stays reachable through the map and is never collected.
package weakmap

import (
	"runtime"
	"sync"
	"weak"
)

type entry[V any] struct {
	value   V
	cleanup runtime.Cleanup
}

type Map[K any, V any] struct {
	mu      sync.Mutex
	entries map[weak.Pointer[K]]*entry[V]
}

func New[K any, V any]() *Map[K, V] {
	return &Map[K, V]{
		entries: map[weak.Pointer[K]]*entry[V]{},
	}
}

func (m *Map[K, V]) Get(key *K) (v V, ok bool) {
	if key == nil {
		return v, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[weak.Make(key)]
	if !ok {
		return v, false
	}
	return e.value, true
}

func (m *Map[K, V]) Has(key *K) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value for key, replacing any previous value.
func (m *Map[K, V]) Set(key *K, value V) {
	if key == nil {
		panic("weakmap: nil key")
	}
	wp := weak.Make(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[wp]; ok {
		e.value = value
		return
	}
	e := &entry[V]{value: value}
	e.cleanup = runtime.AddCleanup(key, m.evict, wp)
	m.entries[wp] = e
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key *K) bool {
	if key == nil {
		return false
	}
	wp := weak.Make(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[wp]
	if !ok {
		return false
	}
	e.cleanup.Stop()
	delete(m.entries, wp)
	return true
}

func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Map[K, V]) evict(wp weak.Pointer[K]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, wp)
}
