package hull

import (
	"math"
	"testing"

	"github.com/chazu/facet/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cubeCorners(s float64) []geom.Point {
	var pts []geom.Point
	for i := 0; i < 8; i++ {
		pts = append(pts, geom.Pt(s*float64(i&1), s*float64(i>>1&1), s*float64(i>>2&1)))
	}
	return pts
}

// volumeOf sums signed tetrahedra over outward triangles.
func volumeOf(r Result) float64 {
	v := 0.0
	for _, f := range r.Faces {
		a, b, c := r.Points[f[0]], r.Points[f[1]], r.Points[f[2]]
		v += geom.Dot(a, geom.Cross(b, c)) / 6
	}
	return v
}

// closed reports whether every directed edge has its twin.
func closed(r Result) bool {
	edges := map[[2]int]int{}
	for _, f := range r.Faces {
		for i := range f {
			edges[[2]int{f[i], f[(i+1)%len(f)]}]++
		}
	}
	for e, n := range edges {
		if n != 1 || edges[[2]int{e[1], e[0]}] != 1 {
			return false
		}
	}
	return true
}

func TestConvexDegenerateKinds(t *testing.T) {
	tests := []struct {
		name string
		pts  []geom.Point
		kind Kind
		size int
	}{
		{"no points", nil, Empty, 0},
		{"single point", []geom.Point{geom.Pt(1, 2, 3)}, Points, 1},
		{"repeated point", []geom.Point{geom.Pt(1, 2, 3), geom.Pt(1, 2, 3)}, Points, 1},
		{"collinear", []geom.Point{geom.Pt(0, 0, 0), geom.Pt(2, 2, 2), geom.Pt(1, 1, 1), geom.Pt(-1, -1, -1)}, Lines, 2},
		{"coplanar square", []geom.Point{geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(1, 1, 0), geom.Pt(0, 1, 0)}, Surface, 4},
		{"triangle", []geom.Point{geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0)}, Surface, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Convex(tt.pts)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Len(t, r.Points, tt.size)
		})
	}
}

func TestConvexSegmentEndpoints(t *testing.T) {
	r := Convex([]geom.Point{geom.Pt(1, 0, 0), geom.Pt(5, 0, 0), geom.Pt(-3, 0, 0)})
	require.Equal(t, Lines, r.Kind)
	assert.ElementsMatch(t, []geom.Point{geom.Pt(-3, 0, 0), geom.Pt(5, 0, 0)}, r.Points)
}

func TestConvexCube(t *testing.T) {
	pts := append(cubeCorners(2), geom.Pt(1, 1, 1), geom.Pt(0.5, 0.5, 0.5))
	r := Convex(pts)
	require.Equal(t, Volume, r.Kind)
	assert.Len(t, r.Points, 8, "interior points are not hull vertices")
	assert.True(t, closed(r))
	assert.InDelta(t, 8, volumeOf(r), 1e-9)
}

func TestConvexContainsEveryPoint(t *testing.T) {
	var pts []geom.Point
	for i := 0; i < 12; i++ {
		for j := 1; j < 6; j++ {
			theta, phi := 2*math.Pi*float64(i)/12, math.Pi*float64(j)/6
			pts = append(pts, geom.Pt(3*math.Sin(phi)*math.Cos(theta), 2*math.Sin(phi)*math.Sin(theta), math.Cos(phi)))
		}
	}
	pts = append(pts, geom.Pt(0, 0, 1), geom.Pt(0, 0, -1), geom.Pt(0.1, 0.2, 0.3))
	r := Convex(pts)
	require.Equal(t, Volume, r.Kind)
	assert.True(t, closed(r))
	assert.Positive(t, volumeOf(r))
	for _, f := range r.Faces {
		pl, ok := geom.PlaneFromPoints(r.Points[f[0]], r.Points[f[1]], r.Points[f[2]])
		require.True(t, ok)
		for _, p := range pts {
			assert.LessOrEqual(t, pl.Distance(p), 1e-6)
		}
	}
	assert.NotContains(t, r.Points, geom.Pt(0.1, 0.2, 0.3))
}

func TestConvexSurfaceIsConvexPolygon(t *testing.T) {
	pts := []geom.Point{geom.Pt(0, 0, 1), geom.Pt(2, 0, 1), geom.Pt(2, 2, 1), geom.Pt(0, 2, 1), geom.Pt(1, 1, 1)}
	r := Convex(pts)
	require.Equal(t, Surface, r.Kind)
	require.Len(t, r.Faces, 1)
	assert.Len(t, r.Faces[0], 4, "the centre point is dropped")
}

func TestConcaveCoversEveryPoint(t *testing.T) {
	pts := cubeCorners(1)
	r := Concave(pts)
	require.Equal(t, Volume, r.Kind)
	assert.Len(t, r.Points, 8)
	v := volumeOf(r)
	assert.Greater(t, v, 0.0)
	assert.LessOrEqual(t, v, 1+1e-6)
}

func TestConcaveFallsBackOnFlatInput(t *testing.T) {
	r := Concave([]geom.Point{geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(0, 1, 0), geom.Pt(1, 1, 0)})
	assert.Equal(t, Surface, r.Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "volume", Volume.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
