// Package planar holds the 2-D algorithms used on flat faces:
// even-odd triangulation of nested loops and polygon offsetting.
package planar

import (
	"errors"
	"math"
	"sort"

	"github.com/chazu/facet/pkg/geom"
	"github.com/deadsy/sdfx/render"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrDegenerate is returned when no triangle can be cut from a loop.
var ErrDegenerate = errors.New("planar: degenerate loop")

const eps = 1e-12

// SignedArea returns the area of loop, positive when counter-clockwise.
func SignedArea(loop []r2.Vec) float64 {
	a := 0.0
	for i := range loop {
		a += r2.Cross(loop[i], loop[(i+1)%len(loop)])
	}
	return a / 2
}

// Contains reports whether p is inside loop under the even-odd rule.
func Contains(loop []r2.Vec, p r2.Vec) bool {
	in := false
	for i, j := 0, len(loop)-1; i < len(loop); j, i = i, i+1 {
		a, b := loop[i], loop[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				in = !in
			}
		}
	}
	return in
}

// Depth returns, for every loop, how many other loops enclose it. Loops
// at even depth bound filled regions and loops at odd depth bound holes.
func Depth(loops [][]r2.Vec) []int {
	depth := make([]int, len(loops))
	for i, l := range loops {
		if len(l) == 0 {
			continue
		}
		inner := interiorPoint(l)
		for j, o := range loops {
			if i != j && len(o) >= 3 && Contains(o, inner) {
				depth[i]++
			}
		}
	}
	return depth
}

// interiorPoint returns a point just inside the first usable corner of l,
// so loops sharing vertices with their parents still nest correctly.
func interiorPoint(l []r2.Vec) r2.Vec {
	if len(l) < 3 {
		return l[0]
	}
	sign := 1.0
	if SignedArea(l) < 0 {
		sign = -1
	}
	for i := range l {
		a, b, c := l[(i+len(l)-1)%len(l)], l[i], l[(i+1)%len(l)]
		if sign*r2.Cross(r2.Sub(b, a), r2.Sub(c, b)) > eps {
			m := r2.Scale(1.0/3, r2.Add(r2.Add(a, b), c))
			return r2.Add(b, r2.Scale(1e-6, r2.Sub(m, b)))
		}
	}
	return l[0]
}

// vert is one corner of the working ring. idx refers back to the caller's
// flattened vertex numbering.
type vert struct {
	p   r2.Vec
	idx int
}

// Triangulate fills the region described by loops under the even-odd
// rule. Triangles index the loops' vertices in order of appearance (the
// first loop's vertices first) and are counter-clockwise. A vertex
// repeated across loops is indexed at its first appearance.
//
// The vertices are triangulated by sdfx's Delaunay triangulation and the
// triangles inside an odd number of loops are kept. When that mesh does
// not contain every loop edge, or its area disagrees with the loops, the
// loops are ear clipped instead.
func Triangulate(loops [][]r2.Vec) ([][3]int, error) {
	if tris, ok := delaunay(loops); ok {
		return tris, nil
	}
	return earClip(loops)
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// delaunay reports false when the triangulation does not conform to the
// loops.
func delaunay(loops [][]r2.Vec) ([][3]int, bool) {
	index := map[r2.Vec]int{}
	var (
		vs    v2.VecSet
		edges [][2]int
		want  float64
		rings [][]r2.Vec
	)
	depth := Depth(loops)
	n := 0
	for li, l := range loops {
		base := n
		n += len(l)
		if len(l) < 3 {
			continue
		}
		rings = append(rings, l)
		for i, p := range l {
			if _, ok := index[p]; !ok {
				index[p] = base + i
				vs = append(vs, v2.Vec{X: p.X, Y: p.Y})
			}
		}
		for i := range l {
			if a, b := index[l[i]], index[l[(i+1)%len(l)]]; a != b {
				edges = append(edges, edgeKey(a, b))
			}
		}
		if depth[li]%2 == 0 {
			want += math.Abs(SignedArea(l))
		} else {
			want -= math.Abs(SignedArea(l))
		}
	}
	if len(vs) < 3 {
		return nil, false
	}
	ts, err := render.Delaunay2d(vs)
	if err != nil {
		return nil, false
	}

	have := map[[2]int]bool{}
	var (
		out  [][3]int
		area float64
	)
	for _, t := range ts {
		var (
			idx [3]int
			pts [3]r2.Vec
		)
		for k, j := range t {
			pts[k] = r2.Vec{X: vs[j].X, Y: vs[j].Y}
			idx[k] = index[pts[k]]
		}
		turn := orient(pts[0], pts[1], pts[2])
		if math.Abs(turn) <= eps {
			continue
		}
		for k := 0; k < 3; k++ {
			have[edgeKey(idx[k], idx[(k+1)%3])] = true
		}
		c := r2.Scale(1.0/3, r2.Add(r2.Add(pts[0], pts[1]), pts[2]))
		inside := 0
		for _, l := range rings {
			if Contains(l, c) {
				inside++
			}
		}
		if inside%2 == 0 {
			continue
		}
		if turn < 0 {
			idx[1], idx[2] = idx[2], idx[1]
		}
		out = append(out, idx)
		area += math.Abs(turn) / 2
	}
	for _, e := range edges {
		if !have[e] {
			return nil, false
		}
	}
	if math.Abs(area-want) > 1e-9*math.Max(1, math.Abs(want)) {
		return nil, false
	}
	return out, true
}

// earClip bridges every hole into its outer loop and clips ears from the
// merged ring.
func earClip(loops [][]r2.Vec) ([][3]int, error) {
	base := make([]int, len(loops))
	n := 0
	for i, l := range loops {
		base[i] = n
		n += len(l)
	}
	depth := Depth(loops)

	var tris [][3]int
	for i, l := range loops {
		if len(l) < 3 || depth[i]%2 != 0 {
			continue
		}
		outer := ring(l, base[i], true)
		var holes [][]vert
		for j, h := range loops {
			if len(h) < 3 || depth[j] != depth[i]+1 || !Contains(l, interiorPoint(h)) {
				continue
			}
			holes = append(holes, ring(h, base[j], false))
		}
		merged := bridge(outer, holes)
		t, err := earcut(merged)
		if err != nil {
			return tris, err
		}
		tris = append(tris, t...)
	}
	return tris, nil
}

// ring converts a loop to working vertices, oriented counter-clockwise
// when ccw is set and clockwise otherwise.
func ring(l []r2.Vec, base int, ccw bool) []vert {
	out := make([]vert, len(l))
	for i, p := range l {
		out[i] = vert{p: p, idx: base + i}
	}
	if (SignedArea(l) > 0) != ccw {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// bridge splices every hole into outer through a zero-width cut from the
// hole's rightmost vertex to a visible outer vertex.
func bridge(outer []vert, holes [][]vert) []vert {
	sort.Slice(holes, func(a, b int) bool { return maxX(holes[a]) > maxX(holes[b]) })
	for hi, h := range holes {
		m := 0
		for i, v := range h {
			if v.p.X > h[m].p.X {
				m = i
			}
		}
		best, bestD := -1, math.Inf(1)
		for i, v := range outer {
			d := r2.Norm2(r2.Sub(v.p, h[m].p))
			if d >= bestD {
				continue
			}
			if visible(h[m].p, v.p, outer, holes[hi:]) {
				best, bestD = i, d
			}
		}
		if best < 0 {
			best = 0
		}
		spliced := make([]vert, 0, len(outer)+len(h)+2)
		spliced = append(spliced, outer[:best+1]...)
		for k := 0; k <= len(h); k++ {
			spliced = append(spliced, h[(m+k)%len(h)])
		}
		spliced = append(spliced, outer[best])
		spliced = append(spliced, outer[best+1:]...)
		outer = spliced
	}
	return outer
}

func maxX(l []vert) float64 {
	x := math.Inf(-1)
	for _, v := range l {
		x = math.Max(x, v.p.X)
	}
	return x
}

// visible reports whether the segment a-b crosses no edge of the given
// rings other than at its own endpoints.
func visible(a, b r2.Vec, outer []vert, holes [][]vert) bool {
	check := func(l []vert) bool {
		for i := range l {
			c, d := l[i].p, l[(i+1)%len(l)].p
			if c == a || c == b || d == a || d == b {
				continue
			}
			if segmentsCross(a, b, c, d) {
				return false
			}
		}
		return true
	}
	if !check(outer) {
		return false
	}
	for _, h := range holes {
		if !check(h) {
			return false
		}
	}
	return true
}

func orient(a, b, c r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

func segmentsCross(a, b, c, d r2.Vec) bool {
	d1, d2 := orient(c, d, a), orient(c, d, b)
	d3, d4 := orient(a, b, c), orient(a, b, d)
	return ((d1 > eps && d2 < -eps) || (d1 < -eps && d2 > eps)) &&
		((d3 > eps && d4 < -eps) || (d3 < -eps && d4 > eps))
}

// earcut clips ears from a counter-clockwise ring.
func earcut(ring []vert) ([][3]int, error) {
	poly := append([]vert(nil), ring...)
	var tris [][3]int
	for guard := 0; len(poly) > 3 && guard < 4*len(ring)*len(ring)+16; guard++ {
		cut := false
		for i := range poly {
			a, b, c := poly[(i+len(poly)-1)%len(poly)], poly[i], poly[(i+1)%len(poly)]
			turn := orient(a.p, b.p, c.p)
			if math.Abs(turn) <= eps {
				// Collinear corner: drop it without emitting a triangle.
				poly = append(poly[:i], poly[i+1:]...)
				cut = true
				break
			}
			if turn < 0 || !isEar(poly, i) {
				continue
			}
			tris = append(tris, [3]int{a.idx, b.idx, c.idx})
			poly = append(poly[:i], poly[i+1:]...)
			cut = true
			break
		}
		if !cut {
			return tris, ErrDegenerate
		}
	}
	if len(poly) == 3 && math.Abs(orient(poly[0].p, poly[1].p, poly[2].p)) > eps {
		tris = append(tris, [3]int{poly[0].idx, poly[1].idx, poly[2].idx})
	}
	return tris, nil
}

// isEar reports whether no other ring vertex lies inside the corner at i.
func isEar(poly []vert, i int) bool {
	n := len(poly)
	a, b, c := poly[(i+n-1)%n].p, poly[i].p, poly[(i+1)%n].p
	for j, v := range poly {
		if j == i || j == (i+n-1)%n || j == (i+1)%n {
			continue
		}
		if v.p == a || v.p == b || v.p == c {
			continue
		}
		if orient(a, b, v.p) >= -eps && orient(b, c, v.p) >= -eps && orient(c, a, v.p) >= -eps {
			return false
		}
	}
	return true
}

// TriangulateFace triangulates one planar 3-D loop in its dominant-axis
// projection. Triangles index face and keep its winding.
func TriangulateFace(face []geom.Point) ([][3]int, bool) {
	pl, ok := geom.PlaneOf(face)
	if !ok {
		return nil, false
	}
	tris, err := TriangulateLoops([][]geom.Point{face}, pl)
	return tris, err == nil && len(tris) > 0
}

// TriangulateLoops triangulates coplanar 3-D loops lying in pl under the
// even-odd rule. Triangles index the flattened loops and wind
// counter-clockwise around pl's normal.
func TriangulateLoops(loops [][]geom.Point, pl geom.Plane) ([][3]int, error) {
	pr := geom.NewProjection(pl)
	flat := make([][]r2.Vec, len(loops))
	for i, l := range loops {
		flat[i] = make([]r2.Vec, len(l))
		for j, p := range l {
			u, v := pr.Project(p)
			flat[i][j] = r2.Vec{X: u, Y: v}
		}
	}
	return Triangulate(flat)
}
