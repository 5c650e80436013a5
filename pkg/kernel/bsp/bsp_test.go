package bsp

import (
	"errors"
	"testing"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(t *testing.T, k *Kernel, min, max geom.Point) kernel.Solid {
	t.Helper()
	s, err := k.FromPolygons(shapes.Box(geom.BBox{Min: min, Max: max}).Loops())
	require.NoError(t, err)
	return s
}

// decomposedVolume sums the volumes of the convex pieces of s.
func decomposedVolume(t *testing.T, k *Kernel, s kernel.Solid) float64 {
	t.Helper()
	pieces, err := k.Decompose(s)
	require.NoError(t, err)
	v := 0.0
	for _, p := range pieces {
		v += Volume(p)
	}
	return v
}

func TestFromPolygonsOrientsInsideOutMeshes(t *testing.T) {
	k := New()
	loops := shapes.Cube(geom.Pt(2, 2, 2), false).Loops()
	for _, l := range loops {
		for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
			l[i], l[j] = l[j], l[i]
		}
	}
	s, err := k.FromPolygons(loops)
	require.NoError(t, err)
	assert.InDelta(t, 8, Volume(s), 1e-9)
}

func TestUnionOfTouchingCubes(t *testing.T) {
	k := New()
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(10, 10, 10))
	b := box(t, k, geom.Pt(10, 0, 0), geom.Pt(20, 10, 10))
	u, err := k.Union(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2000, Volume(u), 1e-6)
	assert.InDelta(t, 2000, decomposedVolume(t, k, u), 1e-6)

	min, max := u.BoundingBox()
	assert.Equal(t, [3]float64{0, 0, 0}, min)
	assert.Equal(t, [3]float64{20, 10, 10}, max)
}

func TestBooleanVolumes(t *testing.T) {
	k := New()
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(2, 2, 2))
	b := box(t, k, geom.Pt(1, 1, 1), geom.Pt(3, 3, 3))

	tests := []struct {
		name string
		op   func(a, b kernel.Solid) (kernel.Solid, error)
		want float64
	}{
		{"union", k.Union, 15},
		{"intersection", k.Intersection, 1},
		{"difference", k.Difference, 7},
		{"symmetric difference", k.SymmetricDifference, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.op(a, b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, Volume(s), 1e-6)
			assert.InDelta(t, tt.want, decomposedVolume(t, k, s), 1e-6)
		})
	}
}

func TestDisjointShortcuts(t *testing.T) {
	k := New()
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	b := box(t, k, geom.Pt(5, 5, 5), geom.Pt(6, 6, 6))

	i, err := k.Intersection(a, b)
	require.NoError(t, err)
	assert.True(t, i.IsEmpty())

	u, err := k.Union(a, b)
	require.NoError(t, err)
	assert.Len(t, u.(*solid).polygons, 12)
	assert.InDelta(t, 2, Volume(u), 1e-9)

	d, err := k.Difference(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1, Volume(d), 1e-9)
}

func TestComplement(t *testing.T) {
	k := New()
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(4, 4, 4))
	hole := box(t, k, geom.Pt(1, 1, 1), geom.Pt(2, 2, 2))

	c, err := k.Complement(hole)
	require.NoError(t, err)
	assert.False(t, c.IsEmpty())
	min, _ := c.BoundingBox()
	assert.Less(t, min[0], -1e300, "complement is unbounded")

	// a ∩ ¬hole == a − hole
	s, err := k.Intersection(a, c)
	require.NoError(t, err)
	assert.InDelta(t, 63, Volume(s), 1e-6)

	back, err := k.Complement(c)
	require.NoError(t, err)
	assert.InDelta(t, 1, Volume(back), 1e-9)

	universe, err := k.Complement(k.Empty())
	require.NoError(t, err)
	all, err := k.Intersection(universe, a)
	require.NoError(t, err)
	assert.InDelta(t, 64, Volume(all), 1e-9)

	_, err = k.Decompose(c)
	assert.True(t, errors.Is(err, kernel.ErrUnsupported))
}

func TestDecomposeLShape(t *testing.T) {
	k := New()
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(2, 1, 1))
	b := box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 2, 1))
	l, err := k.Union(a, b)
	require.NoError(t, err)

	pieces, err := k.Decompose(l)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(pieces), 2, "an L is not convex")
	total := 0.0
	for _, p := range pieces {
		assert.True(t, convex(p.(*solid)))
		total += Volume(p)
	}
	assert.InDelta(t, 3, total, 1e-6)
}

func TestDecomposeConvexIsSinglePiece(t *testing.T) {
	k := New()
	pieces, err := k.Decompose(box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 2, 3)))
	require.NoError(t, err)
	require.Len(t, pieces, 1)
	assert.InDelta(t, 6, Volume(pieces[0]), 1e-9)
}

func TestMinkowskiOfBoxes(t *testing.T) {
	k := New()
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(2, 2, 2))
	b := box(t, k, geom.Pt(-0.5, -0.5, -0.5), geom.Pt(0.5, 0.5, 0.5))
	m, err := k.Minkowski(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 27, Volume(m), 1e-6)
	min, max := m.BoundingBox()
	assert.InDelta(t, -0.5, min[0], 1e-9)
	assert.InDelta(t, 2.5, max[2], 1e-9)
}

func TestTransformMirrorKeepsOrientation(t *testing.T) {
	k := New()
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 2, 3))
	m, err := k.Transform(a, geom.Scaling(geom.Pt(-1, 1, 1)))
	require.NoError(t, err)
	assert.InDelta(t, 6, Volume(m), 1e-9)
	min, _ := m.BoundingBox()
	assert.InDelta(t, -1, min[0], 1e-12)
}

func TestBoundaryAndCopyAreIndependent(t *testing.T) {
	k := New()
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	faces, err := k.Boundary(a)
	require.NoError(t, err)
	require.Len(t, faces, 6)
	faces[0][0] = geom.Pt(100, 100, 100)

	c := k.Copy(a)
	again, _ := k.Boundary(a)
	assert.NotEqual(t, geom.Pt(100, 100, 100), again[0][0])
	assert.InDelta(t, Volume(a), Volume(c), 1e-12)
}

func TestUnionAll(t *testing.T) {
	k := New()
	var solids []kernel.Solid
	for i := 0; i < 5; i++ {
		x := float64(i)
		solids = append(solids, box(t, k, geom.Pt(x, 0, 0), geom.Pt(x+1.5, 1, 1)))
	}
	u, err := k.UnionAll(solids)
	require.NoError(t, err)
	assert.InDelta(t, 5.5, Volume(u), 1e-6)
}
