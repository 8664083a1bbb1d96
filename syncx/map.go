package syncx

import (
	"sync"
)

// Map is a typed sync.Map.
type Map[K comparable, V any] struct {
	data sync.Map
}

func (m *Map[K, V]) Store(key K, value V) {
	m.data.Store(key, value)
}

func (m *Map[K, V]) Load(key K) (V, bool) {
	v, ok := m.data.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (m *Map[K, V]) LoadOrStore(key K, value V) (V, bool) {
	v, loaded := m.data.LoadOrStore(key, value)
	return v.(V), loaded
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{}
}
