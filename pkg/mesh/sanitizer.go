package mesh

import (
	"github.com/chazu/facet/pkg/geom"
)

// Sanitizer repairs a mesh in place: it removes zero-length edges and
// degenerate triangles, then checks that the result is usable for
// incremental boundary construction.
type Sanitizer struct {
	m   *Mesh
	eps float64
}

// NewSanitizer returns a sanitizer for m.
func NewSanitizer(m *Mesh) *Sanitizer {
	return &Sanitizer{m: m, eps: m.tolerance()}
}

// Sanitize runs every repair and reports whether the mesh passed both
// validity checks. A false result means callers must not build
// incrementally from this mesh.
func (s *Sanitizer) Sanitize() bool {
	s.RemoveShortEdges()
	s.RemoveDegenerateTriangles()
	s.m.Compact()
	return s.ValidVertices() && s.ValidFacets()
}

// RemoveShortEdges collapses edges no longer than the tolerance until none
// remain. Each pass erases a face or merges a vertex, so the loop
// terminates.
func (s *Sanitizer) RemoveShortEdges() {
	for {
		h, ok := s.shortEdge()
		if !ok {
			return
		}
		s.removeShortEdge(h)
	}
}

func (s *Sanitizer) shortEdge() (HalfEdge, bool) {
	for fi, f := range s.m.Faces {
		for i := range f {
			h := HalfEdge{From: f[i], To: f[(i+1)%len(f)], Face: fi, Pos: i}
			if h.From == h.To || s.m.Length(h) <= s.eps {
				return h, true
			}
		}
	}
	return HalfEdge{}, false
}

func (s *Sanitizer) removeShortEdge(h HalfEdge) {
	if h.From == h.To {
		s.m.Faces[h.Face] = dedupeLoop(s.m.Faces[h.Face])
		if len(s.m.Faces[h.Face]) < 3 {
			s.m.EraseFacet(h.Face)
		}
		return
	}
	switch d := s.m.VertexDegree(h.From); {
	case d < 3:
		s.m.EraseFacet(h.Face)
	case d == 3:
		s.joinCoplanar(s.m.Next(h))
		s.m.JoinVertex(h)
	default:
		next := s.m.Next(h)
		s.joinCoplanar(next)
		if t, ok := s.m.Twin(s.m.HalfEdges(), h); ok && s.m.Faces[t.Face] != nil {
			s.joinCoplanar(s.m.Next(t))
		}
		s.m.JoinVertex(h)
	}
}

// joinCoplanar merges the facet across h into h's facet when both lie in
// one plane, so the merged facet stays legal.
func (s *Sanitizer) joinCoplanar(h HalfEdge) {
	edges := s.m.HalfEdges()
	t, ok := s.m.Twin(edges, h)
	if !ok || s.m.Faces[h.Face] == nil || s.m.Faces[t.Face] == nil {
		return
	}
	a, okA := geom.PlaneOf(s.loop(h.Face))
	b, okB := geom.PlaneOf(s.loop(t.Face))
	if !okA || !okB || !a.Coincident(b, 1e-6) {
		return
	}
	s.m.JoinFacet(h)
}

func (s *Sanitizer) loop(f int) []geom.Point {
	face := s.m.Faces[f]
	out := make([]geom.Point, len(face))
	for i, v := range face {
		out[i] = s.m.Points[v]
	}
	return out
}

// RemoveDegenerateTriangles folds every zero-area triangle into the facet
// across its longest edge, or erases it when that edge is on the border.
func (s *Sanitizer) RemoveDegenerateTriangles() {
	for {
		fi, ok := s.degenerateTriangle()
		if !ok {
			return
		}
		f := s.m.Faces[fi]
		longest := 0
		for i := 1; i < 3; i++ {
			if geom.Distance(s.m.Points[f[i]], s.m.Points[f[(i+1)%3]]) >
				geom.Distance(s.m.Points[f[longest]], s.m.Points[f[(longest+1)%3]]) {
				longest = i
			}
		}
		u, v, w := f[longest], f[(longest+1)%3], f[(longest+2)%3]
		edges := s.m.HalfEdges()
		t, ok := edges[[2]int{v, u}]
		if !ok || t.Face == fi {
			s.m.EraseFacet(fi)
			continue
		}
		// w lies on segment u-v, so inserting it into the neighbour keeps
		// that facet planar.
		g := s.m.Faces[t.Face]
		merged := make([]int, 0, len(g)+1)
		merged = append(merged, g[:t.Pos+1]...)
		merged = append(merged, w)
		merged = append(merged, g[t.Pos+1:]...)
		s.m.Faces[t.Face] = merged
		s.m.EraseFacet(fi)
	}
}

func (s *Sanitizer) degenerateTriangle() (int, bool) {
	for fi, f := range s.m.Faces {
		if len(f) != 3 {
			continue
		}
		a, b, c := s.m.Points[f[0]], s.m.Points[f[1]], s.m.Points[f[2]]
		if geom.Collinear(a, b, c, s.eps) {
			return fi, true
		}
	}
	return 0, false
}

// ValidVertices reports whether every vertex with more than two incident
// edges has at most two border edges.
func (s *Sanitizer) ValidVertices() bool {
	border := s.m.BorderEdges()
	for v, n := range border {
		if n > 2 && s.m.VertexDegree(v) > 2 {
			return false
		}
	}
	return true
}

// ValidFacets reports whether every facet with more than three vertices is
// planar and does not cross itself.
func (s *Sanitizer) ValidFacets() bool {
	for fi, f := range s.m.Faces {
		if len(f) <= 3 {
			continue
		}
		if !LegalFacet(s.loop(fi), s.eps) {
			return false
		}
	}
	return true
}
