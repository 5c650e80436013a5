package geom

import "sync"

// Polygon is an ordered list of indices into its owner's point pool. It
// never owns points. The plane of the polygon is computed on first request
// and cached until Invalidate is called.
type Polygon struct {
	Indices []int

	mu     sync.Mutex
	cached bool
	plane  Plane
	ok     bool
}

// NewPolygon returns a polygon over the given indices.
func NewPolygon(indices ...int) *Polygon {
	return &Polygon{Indices: indices}
}

// Len returns the number of indices.
func (p *Polygon) Len() int { return len(p.Indices) }

// Append adds an index and drops the cached plane.
func (p *Polygon) Append(i int) {
	p.mu.Lock()
	p.Indices = append(p.Indices, i)
	p.cached = false
	p.mu.Unlock()
}

// Prepend inserts an index at the front and drops the cached plane.
func (p *Polygon) Prepend(i int) {
	p.mu.Lock()
	p.Indices = append([]int{i}, p.Indices...)
	p.cached = false
	p.mu.Unlock()
}

// Invalidate drops the cached plane. Owners call it after moving points.
func (p *Polygon) Invalidate() {
	p.mu.Lock()
	p.cached = false
	p.mu.Unlock()
}

// Points resolves the polygon against pool.
func (p *Polygon) Points(pool []Point) []Point {
	out := make([]Point, len(p.Indices))
	for i, idx := range p.Indices {
		out[i] = pool[idx]
	}
	return out
}

// Plane returns the polygon's plane over pool, computing it once.
func (p *Polygon) Plane(pool []Point) (Plane, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.cached {
		p.plane, p.ok = PlaneOf(p.Points(pool))
		p.cached = true
	}
	return p.plane, p.ok
}

// Projection returns the 2-D projection of the polygon's plane.
func (p *Polygon) Projection(pool []Point) (Projection, bool) {
	pl, ok := p.Plane(pool)
	if !ok {
		return Projection{}, false
	}
	return NewProjection(pl), true
}

// Reversed returns a new polygon with the index order reversed.
func (p *Polygon) Reversed() *Polygon {
	n := len(p.Indices)
	out := make([]int, n)
	for i, idx := range p.Indices {
		out[n-1-i] = idx
	}
	return NewPolygon(out...)
}

// Clone returns a copy without the cached plane.
func (p *Polygon) Clone() *Polygon {
	return NewPolygon(append([]int(nil), p.Indices...)...)
}
