// Package hull computes convex hulls and alpha shapes of point sets,
// reporting degenerate inputs (a point, a segment, a flat polygon) as
// their own lower-dimensional results.
package hull

import (
	"math"
	"sort"

	"github.com/chazu/facet/pkg/geom"
	"github.com/golang/geo/r3"
	quickhull "github.com/markus-wa/quickhull-go/v2"
)

// Kind is the dimension of a hull result.
type Kind int

const (
	Empty   Kind = iota // no input points
	Points              // a single point
	Lines               // a segment
	Surface             // a flat convex polygon
	Volume              // a closed polyhedron
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Points:
		return "points"
	case Lines:
		return "lines"
	case Surface:
		return "surface"
	case Volume:
		return "volume"
	default:
		return "unknown"
	}
}

// Result is a hull over its own compact point list. Faces index Points:
// a Volume has outward triangles, a Surface one polygon, Lines one
// segment and Points a single index.
type Result struct {
	Kind   Kind
	Points []geom.Point
	Faces  [][]int
}

// Loops resolves every face to its points.
func (r Result) Loops() [][]geom.Point {
	out := make([][]geom.Point, len(r.Faces))
	for i, f := range r.Faces {
		loop := make([]geom.Point, len(f))
		for j, idx := range f {
			loop[j] = r.Points[idx]
		}
		out[i] = loop
	}
	return out
}

// tolerance scales geom.Epsilon with the extent of pts.
func tolerance(pts []geom.Point) float64 {
	b := geom.BBoxOf(pts)
	return geom.Epsilon * math.Max(1, geom.Norm(b.Size()))
}

func dedupe(pts []geom.Point, eps float64) []geom.Point {
	seen := make(map[geom.Point]bool, len(pts))
	var out []geom.Point
	for _, p := range pts {
		if seen[p] {
			continue
		}
		seen[p] = true
		dup := false
		for _, q := range out {
			if geom.Near(p, q, eps) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

// Convex returns the convex hull of pts. Points, segments and flat sets
// are recognised here; anything spanning three dimensions goes to
// quickhull.
func Convex(pts []geom.Point) Result {
	eps := tolerance(pts)
	pts = dedupe(pts, eps)
	switch len(pts) {
	case 0:
		return Result{Kind: Empty}
	case 1:
		return Result{Kind: Points, Points: pts, Faces: [][]int{{0}}}
	}

	i0 := 0
	i1 := farthest(pts, func(p geom.Point) float64 { return geom.Distance(p, pts[i0]) })
	dir := geom.Unit(geom.Sub(pts[i1], pts[i0]))
	i2 := farthest(pts, func(p geom.Point) float64 {
		d := geom.Sub(p, pts[i0])
		return geom.Norm(geom.Sub(d, geom.Scale(geom.Dot(d, dir), dir)))
	})
	d2 := geom.Sub(pts[i2], pts[i0])
	if geom.Norm(geom.Sub(d2, geom.Scale(geom.Dot(d2, dir), dir))) <= eps {
		return segment(pts, dir)
	}
	pl, _ := geom.PlaneFromPoints(pts[i0], pts[i1], pts[i2])
	i3 := farthest(pts, func(p geom.Point) float64 { return math.Abs(pl.Distance(p)) })
	if math.Abs(pl.Distance(pts[i3])) <= eps {
		return flat(pts, pl)
	}
	return solid(pts)
}

func farthest(pts []geom.Point, measure func(geom.Point) float64) int {
	best, bestD := 0, -1.0
	for i, p := range pts {
		if d := measure(p); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

func segment(pts []geom.Point, dir geom.Point) Result {
	lo, hi := 0, 0
	for i, p := range pts {
		if geom.Dot(p, dir) < geom.Dot(pts[lo], dir) {
			lo = i
		}
		if geom.Dot(p, dir) > geom.Dot(pts[hi], dir) {
			hi = i
		}
	}
	return Result{Kind: Lines, Points: []geom.Point{pts[lo], pts[hi]}, Faces: [][]int{{0, 1}}}
}

// flat computes the 2-D hull of coplanar points with Andrew's monotone
// chain in the plane's projection.
func flat(pts []geom.Point, pl geom.Plane) Result {
	pr := geom.NewProjection(pl)
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	uv := func(i int) (float64, float64) { return pr.Project(pts[i]) }
	sort.Slice(idx, func(a, b int) bool {
		ua, va := uv(idx[a])
		ub, vb := uv(idx[b])
		if ua != ub {
			return ua < ub
		}
		return va < vb
	})
	cross := func(o, a, b int) float64 {
		uo, vo := uv(o)
		ua, va := uv(a)
		ub, vb := uv(b)
		return (ua-uo)*(vb-vo) - (va-vo)*(ub-uo)
	}
	var chain []int
	for _, i := range idx {
		for len(chain) >= 2 && cross(chain[len(chain)-2], chain[len(chain)-1], i) <= 0 {
			chain = chain[:len(chain)-1]
		}
		chain = append(chain, i)
	}
	lower := len(chain) + 1
	for k := len(idx) - 2; k >= 0; k-- {
		i := idx[k]
		for len(chain) >= lower && cross(chain[len(chain)-2], chain[len(chain)-1], i) <= 0 {
			chain = chain[:len(chain)-1]
		}
		chain = append(chain, i)
	}
	chain = chain[:len(chain)-1]

	out := Result{Kind: Surface}
	face := make([]int, len(chain))
	for j, i := range chain {
		out.Points = append(out.Points, pts[i])
		face[j] = j
	}
	out.Faces = [][]int{face}
	return out
}

// solid takes the hull of points known to span three dimensions from
// quickhull. Triangles are turned to face away from the hull's centre and
// slivers are dropped.
func solid(pts []geom.Point) Result {
	cloud := make([]r3.Vector, len(pts))
	for i, p := range pts {
		cloud[i] = r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
	}
	h := new(quickhull.QuickHull).ConvexHull(cloud, true, false, 0)

	out := Result{Kind: Volume, Points: make([]geom.Point, len(h.Vertices))}
	for i, v := range h.Vertices {
		out.Points[i] = geom.Pt(v.X, v.Y, v.Z)
	}
	centre := geom.Centroid(out.Points)
	for _, t := range h.Triangles() {
		a, b, c := t[0], t[1], t[2]
		pl, ok := geom.PlaneFromPoints(out.Points[a], out.Points[b], out.Points[c])
		if !ok {
			continue
		}
		if pl.Distance(centre) > 0 {
			b, c = c, b
		}
		out.Faces = append(out.Faces, []int{a, b, c})
	}
	return out
}
