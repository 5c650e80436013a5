package hull

import (
	"math"
	"sort"

	"github.com/chazu/facet/pkg/geom"
)

// tet is one Delaunay tetrahedron with its circumsphere.
type tet struct {
	v      [4]int
	centre geom.Point
	r2     float64
	alive  bool
}

// faceKey identifies a triangle independent of vertex order.
type faceKey [3]int

func keyOf(a, b, c int) faceKey {
	k := []int{a, b, c}
	sort.Ints(k)
	return faceKey{k[0], k[1], k[2]}
}

// tetFaces lists the four faces of a tetrahedron together with the vertex
// opposite each face.
var tetFaces = [4][4]int{{1, 2, 3, 0}, {0, 2, 3, 1}, {0, 1, 3, 2}, {0, 1, 2, 3}}

func circumsphere(a, b, c, d geom.Point) (geom.Point, float64, bool) {
	ba, ca, da := geom.Sub(b, a), geom.Sub(c, a), geom.Sub(d, a)
	den := 2 * geom.Dot(ba, geom.Cross(ca, da))
	if math.Abs(den) < 1e-18 {
		return geom.Point{}, 0, false
	}
	n := geom.Add(geom.Add(
		geom.Scale(geom.Dot(ba, ba), geom.Cross(ca, da)),
		geom.Scale(geom.Dot(ca, ca), geom.Cross(da, ba))),
		geom.Scale(geom.Dot(da, da), geom.Cross(ba, ca)))
	off := geom.Scale(1/den, n)
	return geom.Add(a, off), geom.Dot(off, off), true
}

// delaunay builds a Bowyer–Watson tetrahedralisation of pts. Points are
// nudged by a tiny deterministic offset so cospherical input (the corners
// of a box) does not produce flat tetrahedra. The returned tets index pts;
// the nudged coordinates are returned alongside for orientation tests.
func delaunay(pts []geom.Point) ([]*tet, []geom.Point) {
	b := geom.BBoxOf(pts)
	size := math.Max(geom.Norm(b.Size()), 1)
	work := make([]geom.Point, len(pts), len(pts)+4)
	for i, p := range pts {
		j := float64(i%7+1) * size * 1e-9
		work[i] = geom.Add(p, geom.Pt(j, j*0.7, j*0.3))
	}

	c := b.Center()
	big := size * 100
	super := []geom.Point{
		geom.Add(c, geom.Pt(0, 0, 3*big)),
		geom.Add(c, geom.Pt(-2*big, -big, -big)),
		geom.Add(c, geom.Pt(2*big, -big, -big)),
		geom.Add(c, geom.Pt(0, 2*big, -big)),
	}
	n := len(work)
	work = append(work, super...)

	var tets []*tet
	mk := func(a, b, c, d int) {
		ctr, r2, ok := circumsphere(work[a], work[b], work[c], work[d])
		if !ok {
			return
		}
		tets = append(tets, &tet{v: [4]int{a, b, c, d}, centre: ctr, r2: r2, alive: true})
	}
	mk(n, n+1, n+2, n+3)

	for i := 0; i < n; i++ {
		p := work[i]
		counts := map[faceKey]int{}
		var boundary [][3]int
		for _, t := range tets {
			if !t.alive {
				continue
			}
			d := geom.Sub(p, t.centre)
			if geom.Dot(d, d) < t.r2 {
				t.alive = false
				for _, f := range tetFaces {
					tri := [3]int{t.v[f[0]], t.v[f[1]], t.v[f[2]]}
					counts[keyOf(tri[0], tri[1], tri[2])]++
					boundary = append(boundary, tri)
				}
			}
		}
		for _, tri := range boundary {
			if counts[keyOf(tri[0], tri[1], tri[2])] == 1 {
				mk(tri[0], tri[1], tri[2], i)
			}
		}
		tets = compact(tets)
	}

	var out []*tet
	for _, t := range tets {
		if t.v[0] >= n || t.v[1] >= n || t.v[2] >= n || t.v[3] >= n {
			continue
		}
		out = append(out, t)
	}
	return out, work[:n]
}

func compact(tets []*tet) []*tet {
	out := tets[:0]
	for _, t := range tets {
		if t.alive {
			out = append(out, t)
		}
	}
	return out
}
