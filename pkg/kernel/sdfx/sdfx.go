// Package sdfx implements kernel.Kernel on signed distance fields using
// the github.com/deadsy/sdfx CAD library. Solids are exact fields; their
// boundary is recovered with marching cubes, so extracted faces are an
// approximation whose resolution is set by the cell count.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/planar"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

var _ kernel.Kernel = (*Kernel)(nil)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 64

// solid wraps a distance field together with bounds tracked by the kernel.
// The bounds of a complement are infinite.
type solid struct {
	f      sdf.SDF3
	bounds geom.BBox
	empty  bool
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	return s.bounds.Array()
}

func (s *solid) IsEmpty() bool {
	return s.empty || s.bounds.IsEmpty()
}

func (s *solid) unbounded() bool {
	return !s.empty && !s.bounds.IsBounded()
}

// Kernel is the sdfx-backed kernel.
type Kernel struct {
	cells int
}

// New returns a kernel that meshes boundaries with the given number of
// cells. Zero or less selects DefaultCells.
func New(cells int) *Kernel {
	if cells <= 0 {
		cells = DefaultCells
	}
	return &Kernel{cells: cells}
}

func (k *Kernel) Name() string { return "sdfx" }

func unwrap(s kernel.Solid) *solid {
	return s.(*solid)
}

func (k *Kernel) Empty() kernel.Solid {
	return &solid{f: emptySDF{}, bounds: geom.EmptyBBox(), empty: true}
}

// FromPolygons builds the field of the closed surface bounded by faces.
// Orientation does not matter: inside is decided by winding number.
func (k *Kernel) FromPolygons(faces [][]geom.Point) (kernel.Solid, error) {
	var tris []triangle
	bounds := geom.EmptyBBox()
	for _, face := range faces {
		if len(face) < 3 {
			continue
		}
		bounds = bounds.Union(geom.BBoxOf(face))
		if idx, ok := planar.TriangulateFace(face); ok {
			for _, t := range idx {
				tris = appendTriangle(tris, face[t[0]], face[t[1]], face[t[2]])
			}
			continue
		}
		for i := 1; i+1 < len(face); i++ {
			tris = appendTriangle(tris, face[0], face[i], face[i+1])
		}
	}
	if len(tris) == 0 {
		return k.Empty(), nil
	}
	return &solid{f: &meshSDF{tris: tris, box: toBox3(bounds)}, bounds: bounds}, nil
}

func (k *Kernel) Copy(s kernel.Solid) kernel.Solid {
	c := *unwrap(s)
	return &c
}

func (k *Kernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb := unwrap(a), unwrap(b)
	switch {
	case sa.IsEmpty():
		return k.Copy(b), nil
	case sb.IsEmpty():
		return k.Copy(a), nil
	}
	return &solid{f: sdf.Union3D(sa.f, sb.f), bounds: sa.bounds.Union(sb.bounds)}, nil
}

// UnionAll joins every solid in a single field.
func (k *Kernel) UnionAll(solids []kernel.Solid) (kernel.Solid, error) {
	var fields []sdf.SDF3
	bounds := geom.EmptyBBox()
	for _, s := range solids {
		u := unwrap(s)
		if u.IsEmpty() {
			continue
		}
		fields = append(fields, u.f)
		bounds = bounds.Union(u.bounds)
	}
	switch len(fields) {
	case 0:
		return k.Empty(), nil
	case 1:
		return &solid{f: fields[0], bounds: bounds}, nil
	}
	return &solid{f: sdf.Union3D(fields...), bounds: bounds}, nil
}

// Group is a union; fields have no notion of disjoint components.
func (k *Kernel) Group(a, b kernel.Solid) (kernel.Solid, error) {
	return k.Union(a, b)
}

func (k *Kernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb := unwrap(a), unwrap(b)
	if sa.IsEmpty() || sb.IsEmpty() || !sa.bounds.Overlaps(sb.bounds) {
		return k.Empty(), nil
	}
	return &solid{f: sdf.Intersect3D(sa.f, sb.f), bounds: sa.bounds.Intersect(sb.bounds)}, nil
}

func (k *Kernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb := unwrap(a), unwrap(b)
	if sa.IsEmpty() {
		return k.Empty(), nil
	}
	if sb.IsEmpty() || !sa.bounds.Overlaps(sb.bounds) {
		return k.Copy(a), nil
	}
	return &solid{f: sdf.Difference3D(sa.f, sb.f), bounds: sa.bounds}, nil
}

func (k *Kernel) SymmetricDifference(a, b kernel.Solid) (kernel.Solid, error) {
	ab, err := k.Difference(a, b)
	if err != nil {
		return nil, err
	}
	ba, err := k.Difference(b, a)
	if err != nil {
		return nil, err
	}
	return k.Union(ab, ba)
}

// Complement negates the field. The result is unbounded.
func (k *Kernel) Complement(s kernel.Solid) (kernel.Solid, error) {
	u := unwrap(s)
	inf := math.Inf(1)
	all := geom.BBox{Min: geom.Pt(-inf, -inf, -inf), Max: geom.Pt(inf, inf, inf)}
	if n, ok := u.f.(negated); ok {
		switch inner := n.f.(type) {
		case *bounded:
			return &solid{f: inner.SDF3, bounds: inner.bounds}, nil
		case emptySDF:
			return k.Empty(), nil
		}
	}
	if u.IsEmpty() {
		return &solid{f: negated{f: emptySDF{}}, bounds: all}, nil
	}
	return &solid{f: negated{f: &bounded{SDF3: u.f, bounds: u.bounds}}, bounds: all}, nil
}

func (k *Kernel) Minkowski(a, b kernel.Solid) (kernel.Solid, error) {
	return nil, fmt.Errorf("minkowski: %w", kernel.ErrUnsupported)
}

// Transform evaluates the field through the inverse of m. Distances are
// rescaled by the cube root of the determinant, which keeps the sign
// exact and the magnitude close for near-uniform scales.
func (k *Kernel) Transform(s kernel.Solid, m geom.Transform) (kernel.Solid, error) {
	u := unwrap(s)
	if u.IsEmpty() {
		return k.Empty(), nil
	}
	inv, err := m.Inverse()
	if err != nil {
		return nil, fmt.Errorf("transform: %w: %v", kernel.ErrKernel, err)
	}
	bounds := u.bounds
	if bounds.IsBounded() {
		bounds = geom.EmptyBBox()
		for _, c := range u.bounds.Corners() {
			bounds = bounds.Extend(m.Apply(c))
		}
	}
	scale := math.Cbrt(math.Abs(m.Determinant()))
	return &solid{f: &transformed{f: u.f, inv: inv, scale: scale, box: toBox3(bounds)}, bounds: bounds}, nil
}

// Boundary meshes the zero level set. Unbounded solids have no finite
// boundary to mesh.
func (k *Kernel) Boundary(s kernel.Solid) ([][]geom.Point, error) {
	u := unwrap(s)
	if u.IsEmpty() {
		return nil, nil
	}
	if u.unbounded() {
		return nil, fmt.Errorf("boundary of unbounded solid: %w", kernel.ErrUnsupported)
	}
	size := u.bounds.Size()
	pad := 0.05*math.Max(size.X, math.Max(size.Y, size.Z)) + geom.Epsilon
	field := &bounded{SDF3: u.f, bounds: u.bounds.Pad(pad)}
	var out [][]geom.Point
	for _, t := range render.ToTriangles(field, render.NewMarchingCubesUniform(k.cells)) {
		a, b, c := fromV3(t[0]), fromV3(t[1]), fromV3(t[2])
		if geom.Norm(geom.Cross(geom.Sub(b, a), geom.Sub(c, a))) < geom.Epsilon {
			continue
		}
		out = append(out, []geom.Point{a, b, c})
	}
	return out, nil
}

// Decompose is unsupported: fields carry no convex structure. An empty
// solid has no pieces.
func (k *Kernel) Decompose(s kernel.Solid) ([]kernel.Solid, error) {
	if unwrap(s).IsEmpty() {
		return nil, nil
	}
	return nil, fmt.Errorf("decompose: %w: distance fields have no convex pieces", kernel.ErrUnsupported)
}
