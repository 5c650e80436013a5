// Package explorer reconstructs explicit boundary geometry from a kernel
// solid or a polygon soup: a welded point list, oriented faces, perimeter
// loops with hole flags, the ground-plane faces and mass properties.
package explorer

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/planar"
	"github.com/dhconnelly/rtreego"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"
)

// Option configures an Explorer.
type Option func(*Explorer)

// WithTolerance sets the weld distance. By default it scales with the
// extent of the input.
func WithTolerance(eps float64) Option {
	return func(e *Explorer) { e.eps = eps }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Explorer) { e.log = l }
}

// Explorer holds the reconstructed boundary. Faces and Loops index
// Points. Holes[i] is set when Loops[i] lies inside an odd number of
// coplanar loops.
type Explorer struct {
	Points []geom.Point
	Faces  [][]int
	Loops  [][]int
	Holes  []bool

	eps  float64
	tree *rtreego.Rtree
	log  zerolog.Logger
}

// Explore extracts the boundary of s through k and explores it.
func Explore(k kernel.Kernel, s kernel.Solid, opts ...Option) (*Explorer, error) {
	faces, err := k.Boundary(s)
	if err != nil {
		return nil, err
	}
	return FromFaces(faces, opts...), nil
}

// FromFaces explores a polygon soup.
func FromFaces(faces [][]geom.Point, opts ...Option) *Explorer {
	e := &Explorer{log: zerolog.Nop(), tree: rtreego.NewTree(3, 4, 16)}
	for _, o := range opts {
		o(e)
	}
	if e.eps <= 0 {
		b := geom.EmptyBBox()
		for _, f := range faces {
			b = b.Union(geom.BBoxOf(f))
		}
		e.eps = 1e-9 * math.Max(1, geom.Norm(b.Size()))
	}

	raw := make([][]int, 0, len(faces))
	for _, f := range faces {
		idx := make([]int, len(f))
		for i, p := range f {
			idx[i] = e.weld(p)
		}
		raw = append(raw, idx)
	}
	for _, f := range raw {
		f = dedupe(e.repairTJunctions(f))
		if len(f) >= 3 {
			e.Faces = append(e.Faces, f)
		}
	}
	e.Faces = oneSided(e.Faces)
	e.thread(e.perimeter())
	e.flagHoles()

	e.log.Debug().
		Int("points", len(e.Points)).
		Int("faces", len(e.Faces)).
		Int("loops", len(e.Loops)).
		Msg("explored boundary")
	return e
}

type vertex struct {
	index int
	rect  rtreego.Rect
}

func (v *vertex) Bounds() rtreego.Rect { return v.rect }

func toRtree(p geom.Point) rtreego.Point {
	return rtreego.Point{p.X, p.Y, p.Z}
}

// weld returns the index of the point within eps of p, adding p when
// there is none.
func (e *Explorer) weld(p geom.Point) int {
	for _, s := range e.tree.SearchIntersect(toRtree(p).ToRect(e.eps)) {
		v := s.(*vertex)
		if geom.Distance(e.Points[v.index], p) <= e.eps {
			return v.index
		}
	}
	e.Points = append(e.Points, p)
	v := &vertex{index: len(e.Points) - 1, rect: toRtree(p).ToRect(e.eps)}
	e.tree.Insert(v)
	return v.index
}

// repairTJunctions inserts into every edge of f the welded points lying
// strictly inside it, in order along the edge.
func (e *Explorer) repairTJunctions(f []int) []int {
	out := make([]int, 0, len(f))
	for i := range f {
		a, b := f[i], f[(i+1)%len(f)]
		out = append(out, a)
		if a == b {
			continue
		}
		pa, pb := e.Points[a], e.Points[b]
		bb := geom.BBoxOf([]geom.Point{pa, pb}).Pad(e.eps)
		rect, err := rtreego.NewRectFromPoints(toRtree(bb.Min), toRtree(bb.Max))
		if err != nil {
			continue
		}
		d := geom.Sub(pb, pa)
		l2 := geom.Dot(d, d)
		type hit struct {
			index int
			t     float64
		}
		var hits []hit
		for _, s := range e.tree.SearchIntersect(rect) {
			v := s.(*vertex)
			if v.index == a || v.index == b {
				continue
			}
			p := e.Points[v.index]
			t := geom.Dot(geom.Sub(p, pa), d) / l2
			if t <= 0 || t >= 1 {
				continue
			}
			if geom.Distance(p, geom.Lerp(pa, pb, t)) <= e.eps {
				hits = append(hits, hit{v.index, t})
			}
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
		for _, h := range hits {
			out = append(out, h.index)
		}
	}
	return out
}

func dedupe(f []int) []int {
	out := make([]int, 0, len(f))
	for _, v := range f {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// canonical rotates f to start at its smallest index.
func canonical(f []int) string {
	m := 0
	for i, v := range f {
		if v < f[m] {
			m = i
		}
	}
	rot := append(append([]int(nil), f[m:]...), f[:m]...)
	return fmt.Sprint(rot)
}

// oneSided drops the back side of double-sided facets so that a flat
// shape stored with both orientations counts each edge once.
func oneSided(faces [][]int) [][]int {
	seen := map[string]bool{}
	var out [][]int
	for _, f := range faces {
		rev := make([]int, len(f))
		for i, v := range f {
			rev[len(f)-1-i] = v
		}
		if seen[canonical(rev)] {
			continue
		}
		seen[canonical(f)] = true
		out = append(out, f)
	}
	return out
}

// perimeter returns, oriented as in their face, the edges referenced by
// exactly one face.
func (e *Explorer) perimeter() [][2]int {
	count := map[[2]int]int{}
	dir := map[[2]int][2]int{}
	var order [][2]int
	for _, f := range e.Faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			k := [2]int{min(a, b), max(a, b)}
			if count[k] == 0 {
				dir[k] = [2]int{a, b}
				order = append(order, k)
			}
			count[k]++
		}
	}
	var out [][2]int
	for _, k := range order {
		if count[k] == 1 {
			out = append(out, dir[k])
		}
	}
	return out
}

// thread joins perimeter edges into closed loops. A walk follows edges
// head to tail and, at a dead end, continues backwards along an edge
// arriving at the current vertex. Chains that never close are dropped.
func (e *Explorer) thread(edges [][2]int) {
	out := map[int][]int{}
	in := map[int][]int{}
	for i, ed := range edges {
		out[ed[0]] = append(out[ed[0]], i)
		in[ed[1]] = append(in[ed[1]], i)
	}
	used := make([]bool, len(edges))
	next := func(v int) (int, bool) {
		for _, j := range out[v] {
			if !used[j] {
				used[j] = true
				return edges[j][1], true
			}
		}
		for _, j := range in[v] {
			if !used[j] {
				used[j] = true
				return edges[j][0], true
			}
		}
		return 0, false
	}
	for i, ed := range edges {
		if used[i] {
			continue
		}
		used[i] = true
		start, cur := ed[0], ed[1]
		loop := []int{start}
		closed := true
		for cur != start {
			loop = append(loop, cur)
			n, ok := next(cur)
			if !ok {
				closed = false
				break
			}
			cur = n
		}
		if !closed || len(loop) < 3 {
			e.log.Debug().Int("vertices", len(loop)).Msg("dropped open perimeter chain")
			continue
		}
		e.Loops = append(e.Loops, loop)
	}
}

func (e *Explorer) loopPoints(l []int) []geom.Point {
	pts := make([]geom.Point, len(l))
	for i, v := range l {
		pts[i] = e.Points[v]
	}
	return pts
}

// flagHoles groups loops by plane and marks those at odd nesting depth.
func (e *Explorer) flagHoles() {
	e.Holes = make([]bool, len(e.Loops))
	type group struct {
		plane   geom.Plane
		members []int
	}
	var groups []group
	for i, l := range e.Loops {
		pl, ok := geom.PlaneOf(e.loopPoints(l))
		if !ok {
			continue
		}
		placed := false
		for g := range groups {
			if groups[g].plane.Coincident(pl, 1e-6) || groups[g].plane.Coincident(pl.Flip(), 1e-6) {
				groups[g].members = append(groups[g].members, i)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, group{plane: pl, members: []int{i}})
		}
	}
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		pr := geom.NewProjection(g.plane)
		flat := make([][]r2.Vec, len(g.members))
		for j, i := range g.members {
			for _, p := range e.loopPoints(e.Loops[i]) {
				u, v := pr.Project(p)
				flat[j] = append(flat[j], r2.Vec{X: u, Y: v})
			}
		}
		for j, d := range planar.Depth(flat) {
			e.Holes[g.members[j]] = d%2 == 1
		}
	}
}

// Polygons resolves the faces to points.
func (e *Explorer) Polygons() [][]geom.Point {
	out := make([][]geom.Point, len(e.Faces))
	for i, f := range e.Faces {
		out[i] = e.loopPoints(f)
	}
	return out
}

// Boundary returns the faces as a Surface mesh.
func (e *Explorer) Boundary() geom.IndexedMesh {
	return compact(geom.Surface, e.Points, e.Faces)
}

// Perimeter returns the loops as closed polylines.
func (e *Explorer) Perimeter() geom.IndexedMesh {
	lines := make([][]int, len(e.Loops))
	for i, l := range e.Loops {
		lines[i] = append(append([]int(nil), l...), l[0])
	}
	return compact(geom.Lines, e.Points, lines)
}

// Base returns the faces lying in the z=0 plane.
func (e *Explorer) Base() geom.IndexedMesh {
	var base [][]int
	for _, f := range e.Faces {
		flat := true
		for _, v := range f {
			if math.Abs(e.Points[v].Z) > e.eps {
				flat = false
				break
			}
		}
		if flat {
			base = append(base, f)
		}
	}
	return compact(geom.Surface, e.Points, base)
}

func compact(kind geom.Kind, pts []geom.Point, faces [][]int) geom.IndexedMesh {
	m := geom.IndexedMesh{Kind: kind}
	remap := map[int]int{}
	for _, f := range faces {
		nf := make([]int, len(f))
		for i, v := range f {
			j, ok := remap[v]
			if !ok {
				j = len(m.Points)
				remap[v] = j
				m.Points = append(m.Points, pts[v])
			}
			nf[i] = j
		}
		m.Faces = append(m.Faces, nf)
	}
	return m
}
