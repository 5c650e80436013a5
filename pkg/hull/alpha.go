package hull

import (
	"sort"

	"github.com/chazu/facet/pkg/geom"
)

// Concave returns the regularized alpha shape of pts for the optimal
// alpha: the smallest value at which every point lies on the shape and
// the shape is one connected solid. Inputs too degenerate to
// tetrahedralize fall back to Convex.
func Concave(pts []geom.Point) Result {
	pts = dedupe(pts, tolerance(pts))
	convexHull := Convex(pts)
	if convexHull.Kind != Volume {
		return convexHull
	}
	tets, work := delaunay(pts)
	if len(tets) == 0 {
		return convexHull
	}

	radii := make([]float64, 0, len(tets))
	for _, t := range tets {
		radii = append(radii, t.r2)
	}
	sort.Float64s(radii)

	lo := sort.Search(len(radii), func(i int) bool {
		return covers(tets, len(pts), radii[i])
	})
	if lo == len(radii) {
		return convexHull
	}
	alpha := radii[len(radii)-1]
	for i := lo; i < len(radii); i++ {
		if connected(tets, radii[i]) {
			alpha = radii[i]
			break
		}
	}
	return facets(tets, alpha, pts, work)
}

// covers reports whether every point is a vertex of a tet within alpha.
func covers(tets []*tet, n int, alpha float64) bool {
	seen := make([]bool, n)
	count := 0
	for _, t := range tets {
		if t.r2 > alpha {
			continue
		}
		for _, v := range t.v {
			if !seen[v] {
				seen[v] = true
				count++
			}
		}
	}
	return count == n
}

// connected reports whether the tets within alpha form one face-connected
// component.
func connected(tets []*tet, alpha float64) bool {
	parent := make([]int, len(tets))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	owner := map[faceKey]int{}
	kept := 0
	for i, t := range tets {
		if t.r2 > alpha {
			continue
		}
		kept++
		for _, f := range tetFaces {
			k := keyOf(t.v[f[0]], t.v[f[1]], t.v[f[2]])
			if j, ok := owner[k]; ok {
				parent[find(i)] = find(j)
			} else {
				owner[k] = i
			}
		}
	}
	if kept == 0 {
		return false
	}
	roots := map[int]bool{}
	for i, t := range tets {
		if t.r2 <= alpha {
			roots[find(i)] = true
		}
	}
	return len(roots) == 1
}

// facets extracts the outward boundary triangles of the tets within alpha.
func facets(tets []*tet, alpha float64, pts, work []geom.Point) Result {
	type entry struct {
		tri      [3]int
		opposite int
	}
	counts := map[faceKey]int{}
	var entries []entry
	for _, t := range tets {
		if t.r2 > alpha {
			continue
		}
		for _, f := range tetFaces {
			tri := [3]int{t.v[f[0]], t.v[f[1]], t.v[f[2]]}
			counts[keyOf(tri[0], tri[1], tri[2])]++
			entries = append(entries, entry{tri: tri, opposite: t.v[f[3]]})
		}
	}

	out := Result{Kind: Volume}
	remap := map[int]int{}
	for _, e := range entries {
		if counts[keyOf(e.tri[0], e.tri[1], e.tri[2])] != 1 {
			continue
		}
		a, b, c := e.tri[0], e.tri[1], e.tri[2]
		n := geom.Cross(geom.Sub(work[b], work[a]), geom.Sub(work[c], work[a]))
		if geom.Dot(n, geom.Sub(work[e.opposite], work[a])) > 0 {
			b, c = c, b
		}
		var face []int
		for _, v := range []int{a, b, c} {
			j, ok := remap[v]
			if !ok {
				j = len(out.Points)
				remap[v] = j
				out.Points = append(out.Points, pts[v])
			}
			face = append(face, j)
		}
		out.Faces = append(out.Faces, face)
	}
	return out
}
