package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape struct {
	mesh   geom.IndexedMesh
	copied bool
	err    error
}

func (s *shape) Indexed() (geom.IndexedMesh, error) { return s.mesh, s.err }

func (s *shape) Copy() *shape {
	m := geom.IndexedMesh{Kind: s.mesh.Kind, Points: append([]geom.Point(nil), s.mesh.Points...)}
	for _, f := range s.mesh.Faces {
		m.Faces = append(m.Faces, append([]int(nil), f...))
	}
	return &shape{mesh: m, copied: true}
}

type countingObserver struct {
	hits, misses, entries int
}

func (o *countingObserver) ObserveCacheFetch(hit bool, entries int) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
	o.entries = entries
}

func cube(offset float64) *shape {
	m := shapes.Cube(geom.Pt(1, 1, 1), false)
	for i, p := range m.Points {
		m.Points[i] = geom.Add(p, geom.Pt(offset, 0, 0))
	}
	return &shape{mesh: m}
}

func TestFingerprintQuantization(t *testing.T) {
	a := NewFingerprint(cube(0).mesh, 6)
	b := NewFingerprint(cube(1e-9).mesh, 6)
	c := NewFingerprint(cube(1e-3).mesh, 6)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestFingerprintIgnoresPoolOrder(t *testing.T) {
	m := cube(0).mesh
	// Reverse the pool and renumber the faces to match.
	n := len(m.Points)
	perm := geom.IndexedMesh{Kind: m.Kind, Points: make([]geom.Point, n)}
	for i, p := range m.Points {
		perm.Points[n-1-i] = p
	}
	for _, f := range m.Faces {
		g := make([]int, len(f))
		for j, idx := range f {
			g[j] = n - 1 - idx
		}
		perm.Faces = append(perm.Faces, g)
	}
	assert.True(t, NewFingerprint(m, 6).Equal(NewFingerprint(perm, 6)))

	surface := m
	surface.Kind = geom.Surface
	assert.False(t, NewFingerprint(m, 6).Equal(NewFingerprint(surface, 6)))
}

func TestFetch(t *testing.T) {
	obs := &countingObserver{}
	c := New[*shape](WithObserver(obs))

	first := cube(0)
	got := c.Fetch(first)
	assert.Same(t, first, got, "a miss returns the input")
	assert.Equal(t, 1, c.Len())

	second := cube(1e-9)
	got = c.Fetch(second)
	assert.NotSame(t, second, got)
	assert.True(t, got.copied, "a hit returns a copy of the canonical entry")
	assert.Equal(t, first.mesh, got.mesh)
	assert.Equal(t, 1, c.Len(), "a hit does not add an entry")

	c.Fetch(cube(5))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 2, obs.misses)
	assert.Equal(t, 2, obs.entries)

	// Mutating a returned value leaves the canonical entry alone.
	got.mesh.Points[0] = geom.Pt(100, 100, 100)
	again := c.Fetch(cube(0))
	assert.Equal(t, first.mesh.Points[0], again.mesh.Points[0])

	c.Flush()
	assert.Zero(t, c.Len())
}

func TestFetchPassesThroughUnfingerprintable(t *testing.T) {
	c := New[*shape]()
	s := &shape{err: errors.New("no boundary")}
	assert.Same(t, s, c.Fetch(s))
	assert.Zero(t, c.Len())
}

func TestConcurrentFetchKeepsOneEntry(t *testing.T) {
	c := New[*shape]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Fetch(cube(0))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}

func TestManager(t *testing.T) {
	m := NewManager[*shape](WithPrecision(3))
	require.True(t, m.Enabled())

	m.Fetch(cube(0))
	assert.Equal(t, 1, m.Len())

	m.Disable()
	s := cube(0)
	assert.Same(t, s, m.Fetch(s), "a disabled manager passes values through")
	m.Fetch(cube(7))
	assert.Equal(t, 1, m.Len())

	m.Enable()
	got := m.Fetch(cube(0.0001))
	assert.True(t, got.copied, "precision 3 ignores a 1e-4 shift")

	m.Flush()
	assert.Zero(t, m.Len())
}
