package sdfx

import (
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func toV3(p geom.Point) v3.Vec {
	return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func fromV3(v v3.Vec) geom.Point {
	return geom.Pt(v.X, v.Y, v.Z)
}

func toBox3(b geom.BBox) sdf.Box3 {
	if b.IsEmpty() {
		return sdf.Box3{}
	}
	return sdf.Box3{Min: toV3(b.Min), Max: toV3(b.Max)}
}

type emptySDF struct{}

func (emptySDF) Evaluate(v3.Vec) float64 { return math.Inf(1) }

func (emptySDF) BoundingBox() sdf.Box3 { return sdf.Box3{} }

// negated is the complement of f.
type negated struct {
	f sdf.SDF3
}

func (n negated) Evaluate(p v3.Vec) float64 { return -n.f.Evaluate(p) }

func (n negated) BoundingBox() sdf.Box3 {
	inf := math.Inf(1)
	return sdf.Box3{Min: v3.Vec{X: -inf, Y: -inf, Z: -inf}, Max: v3.Vec{X: inf, Y: inf, Z: inf}}
}

// bounded overrides the bounding box of a field with the kernel's own.
type bounded struct {
	sdf.SDF3
	bounds geom.BBox
}

func (b *bounded) BoundingBox() sdf.Box3 { return toBox3(b.bounds) }

type transformed struct {
	f     sdf.SDF3
	inv   geom.Transform
	scale float64
	box   sdf.Box3
}

func (t *transformed) Evaluate(p v3.Vec) float64 {
	return t.f.Evaluate(toV3(t.inv.Apply(fromV3(p)))) * t.scale
}

func (t *transformed) BoundingBox() sdf.Box3 { return t.box }

type triangle [3]geom.Point

func appendTriangle(tris []triangle, a, b, c geom.Point) []triangle {
	if geom.Norm(geom.Cross(geom.Sub(b, a), geom.Sub(c, a))) < geom.Epsilon {
		return tris
	}
	return append(tris, triangle{a, b, c})
}

// meshSDF is the signed distance to a triangle soup. The sign comes from
// the generalized winding number, which tolerates small gaps and either
// orientation.
type meshSDF struct {
	tris []triangle
	box  sdf.Box3
}

func (m *meshSDF) Evaluate(v v3.Vec) float64 {
	p := fromV3(v)
	d := math.Inf(1)
	w := 0.0
	for _, t := range m.tris {
		d = math.Min(d, geom.Distance(p, t.closest(p)))
		w += t.solidAngle(p)
	}
	if math.Abs(w) > 2*math.Pi {
		return -d
	}
	return d
}

func (m *meshSDF) BoundingBox() sdf.Box3 { return m.box }

// solidAngle is the signed solid angle t subtends at p.
func (t triangle) solidAngle(p geom.Point) float64 {
	a, b, c := geom.Sub(t[0], p), geom.Sub(t[1], p), geom.Sub(t[2], p)
	la, lb, lc := geom.Norm(a), geom.Norm(b), geom.Norm(c)
	num := geom.Dot(a, geom.Cross(b, c))
	den := la*lb*lc + geom.Dot(a, b)*lc + geom.Dot(a, c)*lb + geom.Dot(b, c)*la
	return 2 * math.Atan2(num, den)
}

// closest returns the point of t nearest to p.
func (t triangle) closest(p geom.Point) geom.Point {
	a, b, c := t[0], t[1], t[2]
	ab, ac, ap := geom.Sub(b, a), geom.Sub(c, a), geom.Sub(p, a)
	d1, d2 := geom.Dot(ab, ap), geom.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := geom.Sub(p, b)
	d3, d4 := geom.Dot(ab, bp), geom.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return geom.Add(a, geom.Scale(d1/(d1-d3), ab))
	}
	cp := geom.Sub(p, c)
	d5, d6 := geom.Dot(ab, cp), geom.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return geom.Add(a, geom.Scale(d2/(d2-d6), ac))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return geom.Add(b, geom.Scale((d4-d3)/((d4-d3)+(d5-d6)), geom.Sub(c, b)))
	}
	denom := 1 / (va + vb + vc)
	return geom.Add(a, geom.Add(geom.Scale(vb*denom, ab), geom.Scale(vc*denom, ac)))
}
