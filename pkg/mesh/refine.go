package mesh

import (
	"sort"

	"github.com/chazu/facet/pkg/geom"
)

// Subdivide applies level rounds of Loop subdivision. The mesh is
// triangulated first; border edges and vertices use the crease rules so
// open meshes keep their outline.
func (m *Mesh) Subdivide(level int) {
	for ; level > 0; level-- {
		m.Compact()
		m.Triangulate()
		m.loopStep()
	}
}

func (m *Mesh) loopStep() {
	edgeKey := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}
	opposite := map[[2]int][]int{}
	neighbours := make([]map[int]bool, len(m.Points))
	for i := range neighbours {
		neighbours[i] = map[int]bool{}
	}
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b, c := f[i], f[(i+1)%3], f[(i+2)%3]
			k := edgeKey(a, b)
			opposite[k] = append(opposite[k], c)
			neighbours[a][b] = true
			neighbours[b][a] = true
		}
	}
	border := func(a, b int) bool { return len(opposite[edgeKey(a, b)]) == 1 }

	pts := make([]geom.Point, len(m.Points))
	for v, p := range m.Points {
		var ring, rim []int
		for n := range neighbours[v] {
			ring = append(ring, n)
			if border(v, n) {
				rim = append(rim, n)
			}
		}
		sort.Ints(ring)
		switch {
		case len(rim) == 2:
			pts[v] = geom.Add(geom.Scale(0.75, p), geom.Scale(0.125, geom.Add(m.Points[rim[0]], m.Points[rim[1]])))
		case len(rim) > 0 || len(ring) < 3:
			pts[v] = p
		default:
			n := float64(len(ring))
			beta := 3.0 / (8 * n)
			if len(ring) == 3 {
				beta = 3.0 / 16
			}
			sum := geom.Point{}
			for _, r := range ring {
				sum = geom.Add(sum, m.Points[r])
			}
			pts[v] = geom.Add(geom.Scale(1-n*beta, p), geom.Scale(beta, sum))
		}
	}

	mid := map[[2]int]int{}
	midpoint := func(a, b int) int {
		k := edgeKey(a, b)
		if i, ok := mid[k]; ok {
			return i
		}
		pa, pb := m.Points[a], m.Points[b]
		var p geom.Point
		if o := opposite[k]; len(o) == 2 {
			p = geom.Add(geom.Scale(0.375, geom.Add(pa, pb)), geom.Scale(0.125, geom.Add(m.Points[o[0]], m.Points[o[1]])))
		} else {
			p = geom.Scale(0.5, geom.Add(pa, pb))
		}
		pts = append(pts, p)
		mid[k] = len(pts) - 1
		return mid[k]
	}

	faces := make([][]int, 0, 4*len(m.Faces))
	for _, f := range m.Faces {
		a, b, c := f[0], f[1], f[2]
		ab, bc, ca := midpoint(a, b), midpoint(b, c), midpoint(c, a)
		faces = append(faces, []int{a, ab, ca}, []int{ab, b, bc}, []int{ca, bc, c}, []int{ab, bc, ca})
	}
	m.Points, m.Faces = pts, faces
}

// Simplify collapses the shortest edges until the undirected edge count
// drops to ratio of its starting value. A collapse is skipped when it
// would pinch the surface (the endpoints share more than two neighbours)
// or flip a face.
func (m *Mesh) Simplify(ratio float64) {
	if ratio >= 1 {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	m.Compact()
	m.Triangulate()
	target := int(float64(m.edgeCount()) * ratio)

	blocked := map[[2]int]bool{}
	for m.edgeCount() > target {
		h, ok := m.shortestCollapsible(blocked)
		if !ok {
			break
		}
		mid := geom.Scale(0.5, geom.Add(m.Points[h.From], m.Points[h.To]))
		if !m.collapseKeepsOrientation(h, mid) {
			blocked[[2]int{h.From, h.To}] = true
			blocked[[2]int{h.To, h.From}] = true
			continue
		}
		m.Points[h.To] = mid
		m.JoinVertex(h)
	}
	m.Compact()
}

func (m *Mesh) edgeCount() int {
	seen := map[[2]int]bool{}
	for _, f := range m.Faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			if a > b {
				a, b = b, a
			}
			seen[[2]int{a, b}] = true
		}
	}
	return len(seen)
}

func (m *Mesh) shortestCollapsible(blocked map[[2]int]bool) (HalfEdge, bool) {
	edges := m.HalfEdges()
	keys := make([][2]int, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := m.Length(edges[keys[i]]), m.Length(edges[keys[j]])
		if li != lj {
			return li < lj
		}
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, k := range keys {
		if blocked[k] {
			continue
		}
		if m.linkCondition(k[0], k[1]) {
			return edges[k], true
		}
		blocked[k] = true
	}
	return HalfEdge{}, false
}

// linkCondition reports whether a and b share at most two neighbours.
func (m *Mesh) linkCondition(a, b int) bool {
	na, nb := map[int]bool{}, map[int]bool{}
	for _, f := range m.Faces {
		for i, v := range f {
			prev, next := f[(i+len(f)-1)%len(f)], f[(i+1)%len(f)]
			if v == a {
				na[prev], na[next] = true, true
			}
			if v == b {
				nb[prev], nb[next] = true, true
			}
		}
	}
	shared := 0
	for v := range na {
		if v != b && nb[v] {
			shared++
		}
	}
	return shared <= 2
}

func (m *Mesh) collapseKeepsOrientation(h HalfEdge, to geom.Point) bool {
	for _, f := range m.Faces {
		if len(f) != 3 {
			continue
		}
		hasFrom, hasTo := false, false
		for _, v := range f {
			hasFrom = hasFrom || v == h.From
			hasTo = hasTo || v == h.To
		}
		if (!hasFrom && !hasTo) || (hasFrom && hasTo) {
			continue
		}
		before := [3]geom.Point{m.Points[f[0]], m.Points[f[1]], m.Points[f[2]]}
		after := before
		for i, v := range f {
			if v == h.From || v == h.To {
				after[i] = to
			}
		}
		n0 := geom.Cross(geom.Sub(before[1], before[0]), geom.Sub(before[2], before[0]))
		n1 := geom.Cross(geom.Sub(after[1], after[0]), geom.Sub(after[2], after[0]))
		if geom.Dot(n0, n1) <= 0 {
			return false
		}
	}
	return true
}
