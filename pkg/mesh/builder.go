package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/planar"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrConstruction is returned when a facet cannot be added to a boundary
// mesh. Callers fall back to assembling the faces one by one.
var ErrConstruction = errors.New("construction failure")

// Builder assembles a mesh one vertex and facet at a time. When the input
// is already sanitized facets are added without checks; otherwise each
// facet is cleaned and validated, and the first invalid facet abandons the
// whole build.
type Builder struct {
	sanitized bool
	points    []geom.Point
	faces     [][]int
	used      map[[2]int]bool
	err       error
}

// NewBuilder returns an empty builder.
func NewBuilder(sanitized bool) *Builder {
	return &Builder{sanitized: sanitized, used: make(map[[2]int]bool)}
}

// AddVertex appends a vertex and returns its index.
func (b *Builder) AddVertex(p geom.Point) int {
	b.points = append(b.points, p)
	return len(b.points) - 1
}

// AddFacet appends a facet over existing vertices. After the first failure
// every further call is ignored and returns that failure.
func (b *Builder) AddFacet(indices []int) error {
	if b.err != nil {
		return b.err
	}
	facet := indices
	if !b.sanitized {
		facet = dedupeLoop(append([]int(nil), indices...))
		if err := b.validate(facet); err != nil {
			b.err = fmt.Errorf("mesh: facet %d: %w: %v", len(b.faces), ErrConstruction, err)
			return b.err
		}
	}
	for i := range facet {
		b.used[[2]int{facet[i], facet[(i+1)%len(facet)]}] = true
	}
	b.faces = append(b.faces, facet)
	return nil
}

func (b *Builder) validate(f []int) error {
	if len(f) < 3 {
		return errors.New("fewer than three distinct vertices")
	}
	seen := make(map[int]bool, len(f))
	for _, v := range f {
		if v < 0 || v >= len(b.points) {
			return fmt.Errorf("vertex index %d out of range", v)
		}
		if seen[v] {
			return fmt.Errorf("vertex %d repeats", v)
		}
		seen[v] = true
	}
	for i := range f {
		if b.used[[2]int{f[i], f[(i+1)%len(f)]}] {
			return fmt.Errorf("edge %d-%d already used", f[i], f[(i+1)%len(f)])
		}
	}
	loop := make([]geom.Point, len(f))
	for i, v := range f {
		loop[i] = b.points[v]
	}
	if !LegalFacet(loop, tolerance(loop)) {
		return errors.New("facet is degenerate, non-planar or self-intersecting")
	}
	return nil
}

// Build returns the assembled mesh. Unreferenced vertices are pruned when
// the input was not sanitized.
func (b *Builder) Build() (*Mesh, error) {
	if b.err != nil {
		return nil, b.err
	}
	m := New(b.points, b.faces)
	if !b.sanitized {
		m.Compact()
	}
	return m, nil
}

// Build is shorthand for feeding points and faces through a Builder.
func Build(points []geom.Point, faces [][]int, sanitized bool) (*Mesh, error) {
	b := NewBuilder(sanitized)
	for _, p := range points {
		b.AddVertex(p)
	}
	for _, f := range faces {
		if err := b.AddFacet(f); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func tolerance(pts []geom.Point) float64 {
	return 1e-9 * math.Max(1, geom.Norm(geom.BBoxOf(pts).Size()))
}

// LegalFacet reports whether loop has a plane, lies in it and does not
// cross itself.
func LegalFacet(loop []geom.Point, eps float64) bool {
	pl, ok := geom.PlaneOf(loop)
	if !ok {
		return false
	}
	if len(loop) == 3 {
		return true
	}
	for _, p := range loop {
		if math.Abs(pl.Distance(p)) > eps*1e3 {
			return false
		}
	}
	return !SelfIntersecting(loop, pl)
}

// SelfIntersecting reports whether two non-adjacent edges of the planar
// loop touch or cross.
func SelfIntersecting(loop []geom.Point, pl geom.Plane) bool {
	pr := geom.NewProjection(pl)
	flat := make([]r2.Vec, len(loop))
	for i, p := range loop {
		u, v := pr.Project(p)
		flat[i] = r2.Vec{X: u, Y: v}
	}
	n := len(flat)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsTouch(flat[i], flat[(i+1)%n], flat[j], flat[(j+1)%n]) {
				return true
			}
		}
	}
	return planar.SignedArea(flat) == 0
}

func segmentsTouch(a, b, c, d r2.Vec) bool {
	o := func(p, q, r r2.Vec) float64 { return r2.Cross(r2.Sub(q, p), r2.Sub(r, p)) }
	on := func(p, q, r r2.Vec) bool {
		return math.Min(p.X, q.X) <= r.X && r.X <= math.Max(p.X, q.X) &&
			math.Min(p.Y, q.Y) <= r.Y && r.Y <= math.Max(p.Y, q.Y)
	}
	d1, d2, d3, d4 := o(c, d, a), o(c, d, b), o(a, b, c), o(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && on(c, d, a)) || (d2 == 0 && on(c, d, b)) ||
		(d3 == 0 && on(a, b, c)) || (d4 == 0 && on(a, b, d))
}
