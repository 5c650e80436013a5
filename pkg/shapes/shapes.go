// Package shapes generates the leaf meshes a modeling program starts from:
// boxes, spheres, cylinders, flat polygons, polylines and point sets.
package shapes

import (
	"math"

	"github.com/chazu/facet/pkg/geom"
)

// Cube returns a box of the given size. The minimum corner sits at the
// origin unless center is set.
func Cube(size geom.Point, center bool) geom.IndexedMesh {
	b := geom.BBox{Max: size}
	if center {
		half := geom.Scale(0.5, size)
		b = geom.BBox{Min: geom.Scale(-1, half), Max: half}
	}
	return Box(b)
}

// Box returns the closed box spanning b.
func Box(b geom.BBox) geom.IndexedMesh {
	c := b.Corners()
	return geom.IndexedMesh{
		Kind:   geom.Volume,
		Points: c[:],
		Faces: [][]int{
			{0, 2, 3, 1}, {4, 5, 7, 6},
			{0, 1, 5, 4}, {2, 6, 7, 3},
			{0, 4, 6, 2}, {1, 3, 7, 5},
		},
	}
}

// Sphere returns a latitude/longitude sphere with the given number of
// fragments around the equator.
func Sphere(r float64, fragments int) geom.IndexedMesh {
	if fragments < 3 {
		fragments = 3
	}
	rings := (fragments + 1) / 2
	m := geom.IndexedMesh{Kind: geom.Volume}
	for i := 0; i < rings; i++ {
		phi := math.Pi * (float64(i) + 0.5) / float64(rings)
		z := r * math.Cos(phi)
		rr := r * math.Sin(phi)
		for j := 0; j < fragments; j++ {
			theta := 2 * math.Pi * float64(j) / float64(fragments)
			m.Points = append(m.Points, geom.Pt(rr*math.Cos(theta), rr*math.Sin(theta), z))
		}
	}
	top := make([]int, fragments)
	bottom := make([]int, fragments)
	for j := 0; j < fragments; j++ {
		top[j] = j
		bottom[j] = (rings-1)*fragments + (fragments - 1 - j)
	}
	m.Faces = append(m.Faces, top)
	for i := 0; i+1 < rings; i++ {
		for j := 0; j < fragments; j++ {
			a := i*fragments + j
			b := i*fragments + (j+1)%fragments
			c := (i+1)*fragments + (j+1)%fragments
			d := (i+1)*fragments + j
			m.Faces = append(m.Faces, []int{a, d, c, b})
		}
	}
	m.Faces = append(m.Faces, bottom)
	return m
}

// Cylinder returns a frustum of height h from radius r1 at the bottom to
// r2 at the top. A zero radius collapses that end to an apex.
func Cylinder(h, r1, r2 float64, fragments int, center bool) geom.IndexedMesh {
	if fragments < 3 {
		fragments = 3
	}
	z0, z1 := 0.0, h
	if center {
		z0, z1 = -h/2, h/2
	}
	m := geom.IndexedMesh{Kind: geom.Volume}
	ring := func(r, z float64) []int {
		if r == 0 {
			m.Points = append(m.Points, geom.Pt(0, 0, z))
			return []int{len(m.Points) - 1}
		}
		idx := make([]int, fragments)
		for j := 0; j < fragments; j++ {
			theta := 2 * math.Pi * float64(j) / float64(fragments)
			m.Points = append(m.Points, geom.Pt(r*math.Cos(theta), r*math.Sin(theta), z))
			idx[j] = len(m.Points) - 1
		}
		return idx
	}
	lo, hi := ring(r1, z0), ring(r2, z1)
	at := func(r []int, j int) int { return r[j%len(r)] }
	for j := 0; j < fragments; j++ {
		f := []int{at(lo, j), at(lo, j+1), at(hi, j+1), at(hi, j)}
		m.Faces = append(m.Faces, dedupe(f))
	}
	if len(lo) > 1 {
		bottom := make([]int, len(lo))
		for j := range lo {
			bottom[j] = lo[len(lo)-1-j]
		}
		m.Faces = append(m.Faces, bottom)
	}
	if len(hi) > 1 {
		m.Faces = append(m.Faces, append([]int(nil), hi...))
	}
	return m
}

func dedupe(f []int) []int {
	var out []int
	for i, v := range f {
		if i > 0 && v == f[i-1] {
			continue
		}
		out = append(out, v)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// Square returns a flat rectangle in the z=0 plane facing +z.
func Square(w, d float64, center bool) geom.IndexedMesh {
	x0, y0 := 0.0, 0.0
	if center {
		x0, y0 = -w/2, -d/2
	}
	return geom.IndexedMesh{
		Kind:   geom.Surface,
		Points: []geom.Point{geom.Pt(x0, y0, 0), geom.Pt(x0+w, y0, 0), geom.Pt(x0+w, y0+d, 0), geom.Pt(x0, y0+d, 0)},
		Faces:  [][]int{{0, 1, 2, 3}},
	}
}

// Circle returns a flat regular polygon in the z=0 plane facing +z.
func Circle(r float64, fragments int) geom.IndexedMesh {
	if fragments < 3 {
		fragments = 3
	}
	m := geom.IndexedMesh{Kind: geom.Surface}
	face := make([]int, fragments)
	for j := 0; j < fragments; j++ {
		theta := 2 * math.Pi * float64(j) / float64(fragments)
		m.Points = append(m.Points, geom.Pt(r*math.Cos(theta), r*math.Sin(theta), 0))
		face[j] = j
	}
	m.Faces = [][]int{face}
	return m
}

// Polygon returns a flat shape from explicit points and paths. Paths
// nested inside other paths are holes under the even-odd rule. With no
// paths the points form one loop.
func Polygon(points []geom.Point, paths [][]int) geom.IndexedMesh {
	if len(paths) == 0 {
		p := make([]int, len(points))
		for i := range p {
			p[i] = i
		}
		paths = [][]int{p}
	}
	return geom.IndexedMesh{Kind: geom.Surface, Points: points, Faces: paths}
}

// Polyline returns an open path through points.
func Polyline(points []geom.Point) geom.IndexedMesh {
	p := make([]int, len(points))
	for i := range p {
		p[i] = i
	}
	return geom.IndexedMesh{Kind: geom.Lines, Points: points, Faces: [][]int{p}}
}

// PointSet returns isolated points.
func PointSet(points []geom.Point) geom.IndexedMesh {
	m := geom.IndexedMesh{Kind: geom.Points, Points: points}
	for i := range points {
		m.Faces = append(m.Faces, []int{i})
	}
	return m
}
