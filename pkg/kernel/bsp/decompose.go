package bsp

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
)

// Decompose splits s into convex pieces. The solid's polygons are built
// into a tree whose empty back children mark solid cells; every such cell
// is the intersection of the half-spaces along its path and is convex.
// The outer unbounded cell is never emitted.
func (k *Kernel) Decompose(s kernel.Solid) ([]kernel.Solid, error) {
	return kernel.Guard("bsp: decompose", func() ([]kernel.Solid, error) {
		src := unwrap(s)
		if src.IsEmpty() {
			return nil, nil
		}
		if src.unbounded {
			return nil, fmt.Errorf("bsp: decompose of an unbounded solid: %w", kernel.ErrUnsupported)
		}
		if convex(src) {
			return []kernel.Solid{src.clone()}, nil
		}

		root := newNode(clonePolygons(src.polygons))
		box := boxFaces(src.bounds.Pad(1))

		var pieces []kernel.Solid
		var walk func(n *node, cuts []geom.Plane)
		walk = func(n *node, cuts []geom.Plane) {
			if n.plane == nil {
				return
			}
			behind := append(append([]geom.Plane(nil), cuts...), *n.plane)
			if n.back == nil {
				if p := cell(box, behind); p != nil {
					pieces = append(pieces, p)
				}
			} else {
				walk(n.back, behind)
			}
			if n.front != nil {
				walk(n.front, append(append([]geom.Plane(nil), cuts...), n.plane.Flip()))
			}
		}
		walk(root, nil)
		return pieces, nil
	})
}

// convex reports whether every vertex lies behind every face plane.
func convex(s *solid) bool {
	for _, p := range s.polygons {
		for _, q := range s.polygons {
			for _, v := range q.verts {
				if p.plane.Distance(v) > epsilon {
					return false
				}
			}
		}
	}
	return true
}

// cell clips the starting polytope by every plane, keeping the back side,
// and returns nil when nothing with volume survives.
func cell(start [][]geom.Point, cuts []geom.Plane) *solid {
	faces := start
	for _, pl := range cuts {
		faces = clipPolytope(faces, pl)
		if len(faces) < 4 {
			return nil
		}
	}
	var polys []*polygon
	for _, f := range faces {
		if p, ok := newPolygon(f); ok {
			polys = append(polys, p)
		}
	}
	if len(polys) < 4 || signedVolume(polys) < epsilon {
		return nil
	}
	return newSolid(polys, false)
}

// boxFaces returns the six outward faces of b.
func boxFaces(b geom.BBox) [][]geom.Point {
	c := b.Corners()
	return [][]geom.Point{
		{c[0], c[2], c[3], c[1]}, // -z
		{c[4], c[5], c[7], c[6]}, // +z
		{c[0], c[1], c[5], c[4]}, // -y
		{c[2], c[6], c[7], c[3]}, // +y
		{c[0], c[4], c[6], c[2]}, // -x
		{c[1], c[3], c[7], c[5]}, // +x
	}
}

// clipPolytope cuts a convex polytope with pl, keeping the part behind it,
// and closes the cut with a cap face.
func clipPolytope(faces [][]geom.Point, pl geom.Plane) [][]geom.Point {
	var out [][]geom.Point
	var onPlane []geom.Point
	flush := false
	for _, f := range faces {
		clipped := clipLoop(f, pl)
		if len(clipped) < 3 {
			continue
		}
		out = append(out, clipped)
		on := 0
		for _, v := range clipped {
			if math.Abs(pl.Distance(v)) <= epsilon {
				onPlane = appendUnique(onPlane, v)
				on++
			}
		}
		if on == len(clipped) {
			flush = true
		}
	}
	if len(onPlane) >= 3 && !flush {
		out = append(out, sortAround(onPlane, pl.Normal))
	}
	return out
}

// clipLoop keeps the part of the convex loop f behind pl.
func clipLoop(f []geom.Point, pl geom.Plane) []geom.Point {
	var out []geom.Point
	n := len(f)
	for i := 0; i < n; i++ {
		a, b := f[i], f[(i+1)%n]
		da, db := pl.Distance(a), pl.Distance(b)
		if da <= epsilon {
			out = append(out, a)
		}
		if (da < -epsilon && db > epsilon) || (da > epsilon && db < -epsilon) {
			out = append(out, geom.Lerp(a, b, da/(da-db)))
		}
	}
	return dedupeLoop(out)
}

func appendUnique(pts []geom.Point, p geom.Point) []geom.Point {
	for _, q := range pts {
		if geom.Near(p, q, epsilon) {
			return pts
		}
	}
	return append(pts, p)
}

func dedupeLoop(pts []geom.Point) []geom.Point {
	var out []geom.Point
	for _, p := range pts {
		if len(out) > 0 && geom.Near(out[len(out)-1], p, epsilon) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && geom.Near(out[0], out[len(out)-1], epsilon) {
		out = out[:len(out)-1]
	}
	return out
}

// sortAround orders coplanar points counter-clockwise around n.
func sortAround(pts []geom.Point, n geom.Point) []geom.Point {
	c := geom.Centroid(pts)
	u := geom.Unit(geom.Cross(n, geom.Pt(1, 0, 0)))
	if geom.Norm(u) < 0.5 {
		u = geom.Unit(geom.Cross(n, geom.Pt(0, 1, 0)))
	}
	v := geom.Cross(n, u)
	out := append([]geom.Point(nil), pts...)
	sort.Slice(out, func(i, j int) bool {
		di, dj := geom.Sub(out[i], c), geom.Sub(out[j], c)
		return math.Atan2(geom.Dot(di, v), geom.Dot(di, u)) < math.Atan2(geom.Dot(dj, v), geom.Dot(dj, u))
	})
	return out
}

// Volume returns the enclosed volume of s.
func Volume(s kernel.Solid) float64 {
	return signedVolume(unwrap(s).polygons)
}
