package explorer

import (
	"testing"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel/bsp"
	"github.com/chazu/facet/pkg/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) []geom.Point {
	return []geom.Point{geom.Pt(x0, y0, 0), geom.Pt(x1, y0, 0), geom.Pt(x1, y1, 0), geom.Pt(x0, y1, 0)}
}

func reversed(f []geom.Point) []geom.Point {
	out := make([]geom.Point, len(f))
	for i, p := range f {
		out[len(f)-1-i] = p
	}
	return out
}

func TestClosedSolidHasNoPerimeter(t *testing.T) {
	e := FromFaces(shapes.Cube(geom.Pt(2, 2, 2), false).Loops())
	assert.Len(t, e.Points, 8)
	assert.Len(t, e.Faces, 6)
	assert.Empty(t, e.Loops)
	assert.Empty(t, e.Perimeter().Faces)
}

func TestPerimeterLoops(t *testing.T) {
	tests := []struct {
		name  string
		faces [][]geom.Point
		loops int
	}{
		{"single face", [][]geom.Point{square(0, 0, 1, 1)}, 1},
		{"double sided face", [][]geom.Point{square(0, 0, 1, 1), reversed(square(0, 0, 1, 1))}, 1},
		{"two disjoint faces", [][]geom.Point{square(0, 0, 1, 1), square(5, 5, 6, 6)}, 2},
		{"adjacent faces", [][]geom.Point{square(0, 0, 1, 1), square(1, 0, 2, 1)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromFaces(tt.faces)
			assert.Len(t, e.Loops, tt.loops)
			for _, h := range e.Holes {
				assert.False(t, h)
			}
		})
	}
}

func TestPerimeterPolylinesAreClosed(t *testing.T) {
	m := FromFaces([][]geom.Point{square(0, 0, 1, 1)}).Perimeter()
	assert.Equal(t, geom.Lines, m.Kind)
	require.Len(t, m.Faces, 1)
	f := m.Faces[0]
	assert.Len(t, f, 5)
	assert.Equal(t, f[0], f[len(f)-1])
}

func TestHoleFlagging(t *testing.T) {
	frame := [][]geom.Point{
		{geom.Pt(0, 0, 0), geom.Pt(4, 0, 0), geom.Pt(3, 1, 0), geom.Pt(1, 1, 0)},
		{geom.Pt(4, 0, 0), geom.Pt(4, 4, 0), geom.Pt(3, 3, 0), geom.Pt(3, 1, 0)},
		{geom.Pt(4, 4, 0), geom.Pt(0, 4, 0), geom.Pt(1, 3, 0), geom.Pt(3, 3, 0)},
		{geom.Pt(0, 4, 0), geom.Pt(0, 0, 0), geom.Pt(1, 1, 0), geom.Pt(1, 3, 0)},
	}
	e := FromFaces(frame)
	require.Len(t, e.Loops, 2)
	for i, l := range e.Loops {
		outer := false
		for _, v := range l {
			if e.Points[v].X == 0 || e.Points[v].X == 4 {
				outer = true
			}
		}
		assert.Equal(t, !outer, e.Holes[i], "loop %d", i)
	}
}

func TestTJunctionRepair(t *testing.T) {
	faces := [][]geom.Point{
		square(0, 0, 2, 1),
		square(0, 1, 1, 2),
		square(1, 1, 2, 2),
	}
	e := FromFaces(faces)
	assert.Len(t, e.Faces[0], 5, "midpoint of the shared edge is inserted")
	require.Len(t, e.Loops, 1)
	assert.Len(t, e.Loops[0], 7)
}

func TestWeldWithinTolerance(t *testing.T) {
	a := square(0, 0, 1, 1)
	b := square(1, 0, 2, 1)
	b[0] = geom.Pt(1+1e-6, 0, 0)
	e := FromFaces([][]geom.Point{a, b}, WithTolerance(1e-4))
	assert.Len(t, e.Points, 6)
	assert.Len(t, e.Loops, 1)
}

func TestBase(t *testing.T) {
	e := FromFaces(shapes.Cube(geom.Pt(2, 2, 2), false).Loops())
	base := e.Base()
	require.Len(t, base.Faces, 1)
	for _, p := range base.Points {
		assert.Zero(t, p.Z)
	}

	lifted := FromFaces(shapes.Box(geom.BBox{Min: geom.Pt(0, 0, 1), Max: geom.Pt(1, 1, 2)}).Loops())
	assert.Empty(t, lifted.Base().Faces)
}

func TestVolume(t *testing.T) {
	k := bsp.New()
	a, err := k.FromPolygons(shapes.Box(geom.BBox{Min: geom.Pt(0, 0, 0), Max: geom.Pt(2, 2, 2)}).Loops())
	require.NoError(t, err)
	b, err := k.FromPolygons(shapes.Box(geom.BBox{Min: geom.Pt(2, 0, 0), Max: geom.Pt(4, 2, 2)}).Loops())
	require.NoError(t, err)
	u, err := k.Union(a, b)
	require.NoError(t, err)

	m, err := Volume(k, u, true)
	require.NoError(t, err)
	assert.InDelta(t, 16, m.Size, 1e-9)
	assert.InDelta(t, 2, m.Centroid.X, 1e-9)
	assert.InDelta(t, 1, m.Centroid.Y, 1e-9)
	assert.InDelta(t, 1, m.Centroid.Z, 1e-9)
	assert.Equal(t, geom.Pt(4, 2, 2), m.Bounds.Max)

	m, err = Volume(k, a, false)
	require.NoError(t, err)
	assert.InDelta(t, 8, m.Size, 1e-9)
	assert.Equal(t, geom.Point{}, m.Centroid)

	e, err := Explore(k, u)
	require.NoError(t, err)
	assert.Empty(t, e.Loops)
	assert.InDelta(t, 16, FaceMetrics(e.Polygons(), false).Size, 1e-9)
}
