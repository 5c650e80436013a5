// Package mesh is the editable boundary mesh used to repair geometry
// before it reaches the kernel. Faces are index loops over a shared point
// pool; half-edges are derived from the faces on demand.
package mesh

import (
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/planar"
)

// HalfEdge is the directed edge From→To of face Face at position Pos.
type HalfEdge struct {
	From, To  int
	Face, Pos int
}

// Mesh is a boundary mesh. Erased faces are nil until Compact is called.
type Mesh struct {
	Points []geom.Point
	Faces  [][]int
}

// New returns a mesh over points and faces. The slices are used as given.
func New(points []geom.Point, faces [][]int) *Mesh {
	return &Mesh{Points: points, Faces: faces}
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	faces := make([][]int, len(m.Faces))
	for i, f := range m.Faces {
		if f != nil {
			faces[i] = append([]int(nil), f...)
		}
	}
	return &Mesh{Points: append([]geom.Point(nil), m.Points...), Faces: faces}
}

// HalfEdges indexes every directed edge of the live faces. A directed edge
// used by more than one face keeps its first use.
func (m *Mesh) HalfEdges() map[[2]int]HalfEdge {
	out := make(map[[2]int]HalfEdge)
	for fi, f := range m.Faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			if _, ok := out[[2]int{a, b}]; !ok {
				out[[2]int{a, b}] = HalfEdge{From: a, To: b, Face: fi, Pos: i}
			}
		}
	}
	return out
}

// Twin returns the half-edge running opposite to h, if any.
func (m *Mesh) Twin(edges map[[2]int]HalfEdge, h HalfEdge) (HalfEdge, bool) {
	t, ok := edges[[2]int{h.To, h.From}]
	return t, ok
}

// Next returns the half-edge following h in its face.
func (m *Mesh) Next(h HalfEdge) HalfEdge {
	f := m.Faces[h.Face]
	p := (h.Pos + 1) % len(f)
	return HalfEdge{From: f[p], To: f[(p+1)%len(f)], Face: h.Face, Pos: p}
}

// Length returns the length of h.
func (m *Mesh) Length(h HalfEdge) float64 {
	return geom.Distance(m.Points[h.From], m.Points[h.To])
}

// VertexDegree returns the number of distinct edges incident to v.
func (m *Mesh) VertexDegree(v int) int {
	seen := map[int]bool{}
	for _, f := range m.Faces {
		for i, idx := range f {
			if idx != v {
				continue
			}
			seen[f[(i+1)%len(f)]] = true
			seen[f[(i+len(f)-1)%len(f)]] = true
		}
	}
	delete(seen, v)
	return len(seen)
}

// BorderEdges returns, per vertex, the number of incident half-edges with
// no twin.
func (m *Mesh) BorderEdges() map[int]int {
	edges := m.HalfEdges()
	out := map[int]int{}
	for k, h := range edges {
		if _, ok := edges[[2]int{k[1], k[0]}]; !ok {
			out[h.From]++
			out[h.To]++
		}
	}
	return out
}

// Closed reports whether every directed edge has a twin.
func (m *Mesh) Closed() bool {
	edges := m.HalfEdges()
	if len(edges) == 0 {
		return false
	}
	for k := range edges {
		if _, ok := edges[[2]int{k[1], k[0]}]; !ok {
			return false
		}
	}
	return true
}

// EraseFacet removes face f.
func (m *Mesh) EraseFacet(f int) {
	m.Faces[f] = nil
}

// JoinFacet merges the face across h into h's face, removing the edge
// between them. It reports false when h has no twin or the faces share
// more than that edge.
func (m *Mesh) JoinFacet(h HalfEdge) bool {
	edges := m.HalfEdges()
	t, ok := m.Twin(edges, h)
	if !ok || t.Face == h.Face {
		return false
	}
	f, g := m.Faces[h.Face], m.Faces[t.Face]
	shared := 0
	for _, v := range g {
		for _, w := range f {
			if v == w {
				shared++
			}
		}
	}
	if shared != 2 {
		return false
	}
	// Walk f from h.To round to h.From, then g from t.To (== h.From)
	// round to t.From (== h.To), skipping the shared endpoints once.
	var merged []int
	for i := 0; i < len(f); i++ {
		merged = append(merged, f[(h.Pos+1+i)%len(f)])
	}
	for i := 1; i < len(g)-1; i++ {
		merged = append(merged, g[(t.Pos+1+i)%len(g)])
	}
	m.Faces[h.Face] = merged
	m.Faces[t.Face] = nil
	return true
}

// JoinVertex collapses h.From into h.To. Faces left with fewer than three
// distinct vertices are erased.
func (m *Mesh) JoinVertex(h HalfEdge) {
	for fi, f := range m.Faces {
		if f == nil {
			continue
		}
		changed := false
		for i, v := range f {
			if v == h.From {
				f[i] = h.To
				changed = true
			}
		}
		if !changed {
			continue
		}
		f = dedupeLoop(f)
		if len(f) < 3 {
			m.Faces[fi] = nil
		} else {
			m.Faces[fi] = f
		}
	}
}

// dedupeLoop removes consecutive repeats, including across the seam.
func dedupeLoop(f []int) []int {
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

// Compact drops erased faces and points no face references.
func (m *Mesh) Compact() {
	var faces [][]int
	for _, f := range m.Faces {
		if len(f) >= 3 {
			faces = append(faces, f)
		}
	}
	remap := make(map[int]int)
	var pts []geom.Point
	for _, f := range faces {
		for i, v := range f {
			j, ok := remap[v]
			if !ok {
				j = len(pts)
				remap[v] = j
				pts = append(pts, m.Points[v])
			}
			f[i] = j
		}
	}
	m.Points, m.Faces = pts, faces
}

// Loops resolves the live faces to point loops.
func (m *Mesh) Loops() [][]geom.Point {
	var out [][]geom.Point
	for _, f := range m.Faces {
		if len(f) < 3 {
			continue
		}
		loop := make([]geom.Point, len(f))
		for i, v := range f {
			loop[i] = m.Points[v]
		}
		out = append(out, loop)
	}
	return out
}

// Volume returns the signed volume enclosed by the faces.
func (m *Mesh) Volume() float64 {
	v := 0.0
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f); i++ {
			v += geom.Dot(m.Points[f[0]], geom.Cross(m.Points[f[i]], m.Points[f[i+1]]))
		}
	}
	return v / 6
}

// Triangulate replaces every face with triangles. Planar faces are cut in
// their own plane; faces that cannot be cut keep a fan.
func (m *Mesh) Triangulate() {
	var faces [][]int
	for _, f := range m.Faces {
		if len(f) < 3 {
			continue
		}
		if len(f) == 3 {
			faces = append(faces, f)
			continue
		}
		loop := make([]geom.Point, len(f))
		for i, v := range f {
			loop[i] = m.Points[v]
		}
		if tris, ok := planar.TriangulateFace(loop); ok {
			for _, t := range tris {
				faces = append(faces, []int{f[t[0]], f[t[1]], f[t[2]]})
			}
			continue
		}
		for i := 1; i+1 < len(f); i++ {
			faces = append(faces, []int{f[0], f[i], f[i+1]})
		}
	}
	m.Faces = faces
}

// tolerance scales geom.Epsilon with the mesh extent.
func (m *Mesh) tolerance() float64 {
	b := geom.BBoxOf(m.Points)
	return 1e-9 * math.Max(1, geom.Norm(b.Size()))
}
