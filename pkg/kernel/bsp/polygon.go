package bsp

import "github.com/chazu/facet/pkg/geom"

// epsilon is the thickness of a plane used when classifying points.
const epsilon = 1e-5

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// polygon is a convex planar loop with its supporting plane.
type polygon struct {
	verts []geom.Point
	plane geom.Plane
}

func newPolygon(verts []geom.Point) (*polygon, bool) {
	pl, ok := geom.PlaneOf(verts)
	if !ok {
		return nil, false
	}
	return &polygon{verts: verts, plane: pl}, true
}

func (p *polygon) clone() *polygon {
	return &polygon{verts: append([]geom.Point(nil), p.verts...), plane: p.plane}
}

func (p *polygon) flip() {
	for i, j := 0, len(p.verts)-1; i < j; i, j = i+1, j-1 {
		p.verts[i], p.verts[j] = p.verts[j], p.verts[i]
	}
	p.plane = p.plane.Flip()
}

// splitPolygon sorts poly into one of the four lists relative to pl,
// cutting it in two when it spans the plane.
func splitPolygon(pl geom.Plane, poly *polygon, coplanarFront, coplanarBack, fronts, backs *[]*polygon) {
	kind := 0
	types := make([]int, len(poly.verts))
	for i, v := range poly.verts {
		t := pl.Distance(v)
		ty := coplanar
		if t < -epsilon {
			ty = back
		} else if t > epsilon {
			ty = front
		}
		kind |= ty
		types[i] = ty
	}

	switch kind {
	case coplanar:
		if geom.Dot(pl.Normal, poly.plane.Normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*fronts = append(*fronts, poly)
	case back:
		*backs = append(*backs, poly)
	case spanning:
		var f, b []geom.Point
		n := len(poly.verts)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.verts[i], poly.verts[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				t := (pl.W - geom.Dot(pl.Normal, vi)) / geom.Dot(pl.Normal, geom.Sub(vj, vi))
				v := geom.Lerp(vi, vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*fronts = append(*fronts, &polygon{verts: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*backs = append(*backs, &polygon{verts: b, plane: poly.plane})
		}
	}
}

func clonePolygons(in []*polygon) []*polygon {
	out := make([]*polygon, len(in))
	for i, p := range in {
		out[i] = p.clone()
	}
	return out
}
