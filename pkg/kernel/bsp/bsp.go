// Package bsp implements kernel.Kernel with polygon BSP trees. Set algebra
// clips each operand's polygons against the other's tree, which keeps the
// result a closed polyhedron under repeated combination. Complements are
// represented inside-out and stay valid operands.
package bsp

import (
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/planar"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// solid is a closed polygon set. An unbounded solid is the complement of
// the region its (inward facing) polygons enclose.
type solid struct {
	polygons  []*polygon
	unbounded bool
	bounds    geom.BBox
}

func newSolid(polygons []*polygon, unbounded bool) *solid {
	s := &solid{polygons: polygons, unbounded: unbounded}
	s.bounds = geom.EmptyBBox()
	for _, p := range polygons {
		for _, v := range p.verts {
			s.bounds = s.bounds.Extend(v)
		}
	}
	return s
}

// BoundingBox returns the axis-aligned bounding box. Unbounded solids
// report infinite bounds.
func (s *solid) BoundingBox() (min, max [3]float64) {
	if s.unbounded {
		inf := math.Inf(1)
		return [3]float64{-inf, -inf, -inf}, [3]float64{inf, inf, inf}
	}
	return s.bounds.Array()
}

// IsEmpty reports whether the solid encloses nothing.
func (s *solid) IsEmpty() bool {
	return len(s.polygons) == 0 && !s.unbounded
}

func (s *solid) isUniverse() bool {
	return len(s.polygons) == 0 && s.unbounded
}

func (s *solid) clone() *solid {
	return &solid{polygons: clonePolygons(s.polygons), unbounded: s.unbounded, bounds: s.bounds}
}

// Kernel is the BSP-backed solid kernel.
type Kernel struct{}

// New returns a BSP kernel.
func New() *Kernel {
	return &Kernel{}
}

func unwrap(s kernel.Solid) *solid {
	if s == nil {
		return newSolid(nil, false)
	}
	return s.(*solid)
}

// Name returns "bsp".
func (k *Kernel) Name() string { return "bsp" }

// Empty returns a solid enclosing nothing.
func (k *Kernel) Empty() kernel.Solid { return newSolid(nil, false) }

// Copy returns an independent copy of s.
func (k *Kernel) Copy(s kernel.Solid) kernel.Solid { return unwrap(s).clone() }

// FromPolygons builds a solid from closed boundary faces. Faces are
// expected to wind counter-clockwise seen from outside; a mesh whose
// signed volume is negative is turned outside-in. Non-convex faces are
// triangulated. Degenerate faces are dropped.
func (k *Kernel) FromPolygons(faces [][]geom.Point) (kernel.Solid, error) {
	return kernel.Guard("bsp: from polygons", func() (kernel.Solid, error) {
		var polys []*polygon
		for _, f := range faces {
			if len(f) < 3 {
				continue
			}
			if isConvex(f) {
				if p, ok := newPolygon(append([]geom.Point(nil), f...)); ok {
					polys = append(polys, p)
				}
				continue
			}
			tris, ok := planar.TriangulateFace(f)
			if !ok {
				return nil, fmt.Errorf("bsp: face with %d vertices cannot be triangulated: %w", len(f), kernel.ErrKernel)
			}
			for _, t := range tris {
				if p, ok := newPolygon([]geom.Point{f[t[0]], f[t[1]], f[t[2]]}); ok {
					polys = append(polys, p)
				}
			}
		}
		if signedVolume(polys) < 0 {
			for _, p := range polys {
				p.flip()
			}
		}
		return newSolid(polys, false), nil
	})
}

// isConvex reports whether the planar loop f turns the same way at every
// vertex.
func isConvex(f []geom.Point) bool {
	n := geom.NewellNormal(f)
	if geom.Norm(n) < geom.Epsilon {
		return false
	}
	for i := range f {
		a, b, c := f[i], f[(i+1)%len(f)], f[(i+2)%len(f)]
		if geom.Dot(geom.Cross(geom.Sub(b, a), geom.Sub(c, b)), n) < -epsilon {
			return false
		}
	}
	return true
}

func signedVolume(polys []*polygon) float64 {
	v := 0.0
	for _, p := range polys {
		for i := 1; i+1 < len(p.verts); i++ {
			v += geom.Dot(p.verts[0], geom.Cross(p.verts[i], p.verts[i+1]))
		}
	}
	return v / 6
}

func disjoint(a, b *solid) bool {
	if a.unbounded || b.unbounded {
		return false
	}
	return !a.bounds.Pad(epsilon).Overlaps(b.bounds.Pad(epsilon))
}

// Union returns a ∪ b.
func (k *Kernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	return kernel.Guard("bsp: union", func() (kernel.Solid, error) {
		return union(unwrap(a), unwrap(b)), nil
	})
}

func union(sa, sb *solid) *solid {
	switch {
	case sa.isUniverse() || sb.isUniverse():
		return newSolid(nil, true)
	case sa.IsEmpty():
		return sb.clone()
	case sb.IsEmpty():
		return sa.clone()
	case disjoint(sa, sb):
		return newSolid(append(clonePolygons(sa.polygons), clonePolygons(sb.polygons)...), false)
	}
	a := newNode(clonePolygons(sa.polygons))
	b := newNode(clonePolygons(sb.polygons))
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	return newSolid(a.allPolygons(), sa.unbounded || sb.unbounded)
}

// UnionAll unions every solid in one balanced reduction.
func (k *Kernel) UnionAll(solids []kernel.Solid) (kernel.Solid, error) {
	return kernel.BalancedUnion(k, solids)
}

// Group merges a and b. Disjoint operands are concatenated without
// clipping; overlapping ones fall back to a full union.
func (k *Kernel) Group(a, b kernel.Solid) (kernel.Solid, error) {
	return k.Union(a, b)
}

// Intersection returns a ∩ b.
func (k *Kernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	return kernel.Guard("bsp: intersection", func() (kernel.Solid, error) {
		return intersection(unwrap(a), unwrap(b)), nil
	})
}

func intersection(sa, sb *solid) *solid {
	switch {
	case sa.IsEmpty() || sb.IsEmpty() || disjoint(sa, sb):
		return newSolid(nil, false)
	case sa.isUniverse():
		return sb.clone()
	case sb.isUniverse():
		return sa.clone()
	}
	a := newNode(clonePolygons(sa.polygons))
	b := newNode(clonePolygons(sb.polygons))
	a.invert()
	b.clipTo(a)
	b.invert()
	a.clipTo(b)
	b.clipTo(a)
	a.build(b.allPolygons())
	a.invert()
	return newSolid(a.allPolygons(), sa.unbounded && sb.unbounded)
}

// Difference returns a − b.
func (k *Kernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return kernel.Guard("bsp: difference", func() (kernel.Solid, error) {
		return difference(unwrap(a), unwrap(b)), nil
	})
}

func difference(sa, sb *solid) *solid {
	switch {
	case sa.IsEmpty() || sb.isUniverse():
		return newSolid(nil, false)
	case sb.IsEmpty() || disjoint(sa, sb):
		return sa.clone()
	case sa.isUniverse():
		return complement(sb)
	}
	a := newNode(clonePolygons(sa.polygons))
	b := newNode(clonePolygons(sb.polygons))
	a.invert()
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	a.invert()
	return newSolid(a.allPolygons(), sa.unbounded && !sb.unbounded)
}

// SymmetricDifference returns (a − b) ∪ (b − a).
func (k *Kernel) SymmetricDifference(a, b kernel.Solid) (kernel.Solid, error) {
	return kernel.Guard("bsp: symmetric difference", func() (kernel.Solid, error) {
		sa, sb := unwrap(a), unwrap(b)
		return union(difference(sa, sb), difference(sb, sa)), nil
	})
}

// Complement returns the inside-out solid.
func (k *Kernel) Complement(s kernel.Solid) (kernel.Solid, error) {
	return kernel.Guard("bsp: complement", func() (kernel.Solid, error) {
		return complement(unwrap(s)), nil
	})
}

func complement(s *solid) *solid {
	polys := clonePolygons(s.polygons)
	for _, p := range polys {
		p.flip()
	}
	return newSolid(polys, !s.unbounded)
}

// Transform applies m to every vertex. Mirroring transforms reverse the
// winding so faces keep pointing outward.
func (k *Kernel) Transform(s kernel.Solid, m geom.Transform) (kernel.Solid, error) {
	return kernel.Guard("bsp: transform", func() (kernel.Solid, error) {
		src := unwrap(s)
		mirror := m.Mirrors()
		polys := make([]*polygon, 0, len(src.polygons))
		for _, p := range src.polygons {
			verts := make([]geom.Point, len(p.verts))
			for i, v := range p.verts {
				verts[i] = m.Apply(v)
			}
			if mirror {
				for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
					verts[i], verts[j] = verts[j], verts[i]
				}
			}
			if np, ok := newPolygon(verts); ok {
				polys = append(polys, np)
			}
		}
		return newSolid(polys, src.unbounded), nil
	})
}

// Boundary returns every boundary face as a loop of points.
func (k *Kernel) Boundary(s kernel.Solid) ([][]geom.Point, error) {
	src := unwrap(s)
	out := make([][]geom.Point, len(src.polygons))
	for i, p := range src.polygons {
		out[i] = append([]geom.Point(nil), p.verts...)
	}
	return out, nil
}
