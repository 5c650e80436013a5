// Package cache memoizes evaluated shapes by structural fingerprint so
// that identical subtrees share one canonical result.
package cache

import (
	"sync"

	"github.com/chazu/facet/pkg/geom"
	"github.com/rs/zerolog"
)

// DefaultPrecision is the number of decimal places kept when quantizing.
const DefaultPrecision = 6

// Cacheable is a value the cache can fingerprint and duplicate.
type Cacheable[T any] interface {
	Indexed() (geom.IndexedMesh, error)
	Copy() T
}

// Observer receives cache events.
type Observer interface {
	ObserveCacheFetch(hit bool, entries int)
}

// Option configures a cache.
type Option func(*options)

type options struct {
	precision int
	observer  Observer
	log       zerolog.Logger
}

// WithPrecision sets the quantization precision in decimal places.
func WithPrecision(places int) Option {
	return func(o *options) { o.precision = places }
}

// WithObserver reports every fetch to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

type entry[T any] struct {
	fp    Fingerprint
	value T
}

// Cache maps fingerprints to canonical values. It is safe for concurrent
// use; when two goroutines insert the same fingerprint the first one wins
// and the other receives a copy of the winner.
type Cache[T Cacheable[T]] struct {
	mu      sync.Mutex
	entries map[uint64][]entry[T]
	count   int
	opts    options
}

// New returns an empty cache.
func New[T Cacheable[T]](opts ...Option) *Cache[T] {
	o := options{precision: DefaultPrecision, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{entries: map[uint64][]entry[T]{}, opts: o}
}

// Fetch returns a copy of the canonical value sharing v's fingerprint.
// When there is none, a copy of v becomes canonical and v itself is
// returned. Values that cannot be fingerprinted pass through.
func (c *Cache[T]) Fetch(v T) T {
	m, err := v.Indexed()
	if err != nil {
		c.opts.log.Debug().Err(err).Msg("skipping cache for value without boundary")
		return v
	}
	fp := NewFingerprint(m, c.opts.precision)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries[fp.Sum] {
		if e.fp.Equal(fp) {
			c.observe(true)
			return e.value.Copy()
		}
	}
	c.entries[fp.Sum] = append(c.entries[fp.Sum], entry[T]{fp: fp, value: v.Copy()})
	c.count++
	c.observe(false)
	c.opts.log.Trace().Uint64("fingerprint", fp.Sum).Int("entries", c.count).Msg("cached")
	return v
}

func (c *Cache[T]) observe(hit bool) {
	if c.opts.observer != nil {
		c.opts.observer.ObserveCacheFetch(hit, c.count)
	}
}

// Len returns the number of canonical entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Flush drops every entry.
func (c *Cache[T]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[uint64][]entry[T]{}
	c.count = 0
}
