package cache

import "sync/atomic"

// Manager switches a cache on and off. A disabled manager passes values
// through untouched and keeps its entries until flushed.
type Manager[T Cacheable[T]] struct {
	cache   *Cache[T]
	enabled atomic.Bool
}

// NewManager returns an enabled manager over a new cache.
func NewManager[T Cacheable[T]](opts ...Option) *Manager[T] {
	m := &Manager[T]{cache: New[T](opts...)}
	m.enabled.Store(true)
	return m
}

// Fetch consults the cache when enabled.
func (m *Manager[T]) Fetch(v T) T {
	if !m.enabled.Load() {
		return v
	}
	return m.cache.Fetch(v)
}

func (m *Manager[T]) Enable() { m.enabled.Store(true) }

func (m *Manager[T]) Disable() { m.enabled.Store(false) }

func (m *Manager[T]) Enabled() bool { return m.enabled.Load() }

// Flush empties the cache.
func (m *Manager[T]) Flush() { m.cache.Flush() }

// Len returns the number of cached entries.
func (m *Manager[T]) Len() int { return m.cache.Len() }
