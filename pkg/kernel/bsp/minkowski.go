package bsp

import (
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/hull"
	"github.com/chazu/facet/pkg/kernel"
)

// Minkowski returns the Minkowski sum of a and b: the union, over every
// pair of convex pieces, of the hull of their pairwise vertex sums.
func (k *Kernel) Minkowski(a, b kernel.Solid) (kernel.Solid, error) {
	sa, sb := unwrap(a), unwrap(b)
	if sa.IsEmpty() || sb.IsEmpty() {
		return k.Empty(), nil
	}
	pa, err := k.Decompose(sa)
	if err != nil {
		return nil, err
	}
	pb, err := k.Decompose(sb)
	if err != nil {
		return nil, err
	}
	var sums []kernel.Solid
	for _, x := range pa {
		vx := vertices(unwrap(x))
		for _, y := range pb {
			vy := vertices(unwrap(y))
			pts := make([]geom.Point, 0, len(vx)*len(vy))
			for _, p := range vx {
				for _, q := range vy {
					pts = append(pts, geom.Add(p, q))
				}
			}
			h := hull.Convex(pts)
			if h.Kind != hull.Volume {
				continue
			}
			s, err := k.FromPolygons(h.Loops())
			if err != nil {
				return nil, err
			}
			sums = append(sums, s)
		}
	}
	return k.UnionAll(sums)
}

// vertices returns the distinct vertices of s.
func vertices(s *solid) []geom.Point {
	var out []geom.Point
	for _, p := range s.polygons {
		for _, v := range p.verts {
			out = appendUnique(out, v)
		}
	}
	return out
}
