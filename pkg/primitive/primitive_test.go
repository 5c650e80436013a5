package primitive

import (
	"math"
	"testing"

	"github.com/chazu/facet/pkg/cache"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/kernel/bsp"
	"github.com/chazu/facet/pkg/kernel/sdfx"
	"github.com/chazu/facet/pkg/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spy counts the set operations that reach the kernel.
type spy struct {
	kernel.Kernel
	intersections int
}

func (s *spy) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	s.intersections++
	return s.Kernel.Intersection(a, b)
}

func box(k kernel.Kernel, min, max geom.Point) *Primitive {
	return FromMesh(k, shapes.Box(geom.BBox{Min: min, Max: max}))
}

func size(t *testing.T, p *Primitive) float64 {
	t.Helper()
	m, err := p.Volume(false)
	require.NoError(t, err)
	return m.Size
}

func TestCombineWithEmptyQueuesIsIdentity(t *testing.T) {
	p := box(bsp.New(), geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	r, err := p.Combine()
	require.NoError(t, err)
	assert.Same(t, p, r)
	assert.Zero(t, r.Pending())
}

func TestUnionOfCubesSharingAFace(t *testing.T) {
	k := bsp.New()
	a := box(k, geom.Pt(0, 0, 0), geom.Pt(10, 10, 10))
	b := box(k, geom.Pt(10, 0, 0), geom.Pt(20, 10, 10))
	u, err := a.Union(b)
	require.NoError(t, err)
	assert.Equal(t, Volume, u.Type())
	assert.InDelta(t, 2000, size(t, u), 1e-6)
	assert.Contains(t, u.Children(), b)
}

func TestUnionCommutes(t *testing.T) {
	k := bsp.New()
	build := func() (*Primitive, *Primitive) {
		return box(k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1)), box(k, geom.Pt(3, 0, 0), geom.Pt(5, 2, 2))
	}
	a, b := build()
	ab, err := a.Union(b)
	require.NoError(t, err)
	c, d := build()
	ba, err := d.Union(c)
	require.NoError(t, err)

	assert.InDelta(t, size(t, ab), size(t, ba), 1e-9)
	assert.Len(t, ba.Points(), len(ab.Points()))
	assert.Len(t, ba.Polygons(), len(ab.Polygons()))
}

func TestDisjointIntersectionSkipsKernel(t *testing.T) {
	k := &spy{Kernel: bsp.New()}
	a := box(k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	b := box(k, geom.Pt(5, 5, 5), geom.Pt(6, 6, 6))
	r, err := a.Intersection(b)
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
	assert.Zero(t, k.intersections)

	c := box(k, geom.Pt(0.5, 0.5, 0.5), geom.Pt(2, 2, 2))
	d := box(k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	r, err = d.Intersection(c)
	require.NoError(t, err)
	assert.Equal(t, 1, k.intersections)
	assert.InDelta(t, 0.125, size(t, r), 1e-9)
}

func TestHullOfCoplanarPointsIsSurface(t *testing.T) {
	p := FromMesh(nil, shapes.PointSet([]geom.Point{
		geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(1, 1, 0), geom.Pt(0, 1, 0),
	}))
	h, err := p.Hull(false)
	require.NoError(t, err)
	assert.Equal(t, Surface, h.Type())
	assert.Len(t, h.Points(), 4)

	p.AppendVertex(geom.Pt(0, 0, 1))
	h, err = p.Hull(false)
	require.NoError(t, err)
	assert.Equal(t, Volume, h.Type())
}

func TestDiscrete(t *testing.T) {
	tests := []struct {
		name   string
		in     geom.Point
		places int
		want   geom.Point
	}{
		{"two places", geom.Pt(1.2345, 0, 0), 2, geom.Pt(1.23, 0, 0)},
		{"half rounds away from zero", geom.Pt(0.125, -0.125, 2), 2, geom.Pt(0.13, -0.13, 2)},
		{"whole numbers", geom.Pt(2.5, 7.49, -3.6), 0, geom.Pt(3, 7, -4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromMesh(nil, shapes.PointSet([]geom.Point{tt.in}))
			r, err := p.Discrete(tt.places)
			require.NoError(t, err)
			require.Len(t, r.Points(), 1)
			assert.Equal(t, tt.want, r.Points()[0])
		})
	}
}

func TestBoundaryOfBoundaryIsStable(t *testing.T) {
	s := box(bsp.New(), geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	b1, err := s.Boundary()
	require.NoError(t, err)
	assert.Equal(t, Surface, b1.Type())
	assert.NotEmpty(t, b1.Polygons())

	b2, err := b1.Boundary()
	require.NoError(t, err)
	assert.Equal(t, Lines, b2.Type())
	assert.Empty(t, b2.Polygons(), "a closed surface has no perimeter")

	b3, err := b2.Boundary()
	require.NoError(t, err)
	assert.Same(t, b2, b3)
}

func TestBoundaryOfSquareIsItsOutline(t *testing.T) {
	sq := FromMesh(bsp.New(), shapes.Square(2, 2, false))
	b, err := sq.Boundary()
	require.NoError(t, err)
	assert.Equal(t, Lines, b.Type())
	require.Len(t, b.Polygons(), 1)
	assert.Equal(t, 5, b.Polygons()[0].Len())
}

func TestCacheSubstitutesEquivalentPrimitives(t *testing.T) {
	c := cache.New[*Primitive](cache.WithPrecision(6))
	a := box(nil, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	b := box(nil, geom.Pt(1e-9, 0, 0), geom.Pt(1, 1, 1))

	ra := c.Fetch(a)
	rb := c.Fetch(b)
	assert.Equal(t, 1, c.Len())
	assert.NotSame(t, a, rb)

	ma, err := ra.Indexed()
	require.NoError(t, err)
	mb, err := rb.Indexed()
	require.NoError(t, err)
	assert.Equal(t, ma, mb)

	c.Fetch(box(nil, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1)))
	assert.Equal(t, 1, c.Len())
}

func TestPlainMeshUnionConcatenates(t *testing.T) {
	a := box(nil, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	b := box(nil, geom.Pt(5, 0, 0), geom.Pt(6, 1, 1))
	u, err := a.Union(b)
	require.NoError(t, err)
	assert.Same(t, a, u)
	assert.Len(t, u.Points(), 16)
	assert.Len(t, u.Polygons(), 12)
	assert.InDelta(t, 2, size(t, u), 1e-9)

	d, err := u.Difference(b)
	require.NoError(t, err)
	assert.Same(t, u, d, "difference needs a kernel")
}

func TestAnnotationWrapsBooleanResult(t *testing.T) {
	k := bsp.New()
	tests := []struct {
		name string
		run  func(note, other *Primitive) (*Primitive, error)
	}{
		{"annotation first", func(note, other *Primitive) (*Primitive, error) { return note.Union(other) }},
		{"annotation second", func(note, other *Primitive) (*Primitive, error) { return other.Union(note) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := Annotate("oak", box(k, geom.Pt(0, 0, 0), geom.Pt(10, 10, 10)))
			assert.Equal(t, "oak", note.Annotation())
			assert.True(t, note.IsFullyDimensional())

			r, err := tt.run(note, box(k, geom.Pt(20, 0, 0), geom.Pt(30, 10, 10)))
			require.NoError(t, err)
			assert.Same(t, note, r)
			assert.Equal(t, "oak", r.Annotation())
			assert.InDelta(t, 2000, size(t, r), 1e-6)
			assert.InDelta(t, 30, r.Bounds().Size().X, 1e-9)

			m, err := r.Mesh()
			require.NoError(t, err)
			assert.Equal(t, "oak", m.Name)
		})
	}
}

func TestSubtractedAnnotationLendsGeometry(t *testing.T) {
	k := bsp.New()
	a := box(k, geom.Pt(0, 0, 0), geom.Pt(10, 10, 10))
	note := Annotate("oak", box(k, geom.Pt(5, 0, 0), geom.Pt(15, 10, 10)))
	d, err := a.Difference(note)
	require.NoError(t, err)
	assert.Empty(t, d.Annotation())
	assert.InDelta(t, 500, size(t, d), 1e-6)
}

func TestOperationsKeepTheAnnotation(t *testing.T) {
	note := Annotate("oak", FromMesh(nil, shapes.PointSet([]geom.Point{geom.Pt(1.234, 0, 0)})))
	r, err := note.Discrete(2)
	require.NoError(t, err)
	assert.Same(t, note, r)
	assert.Equal(t, "oak", r.Annotation())
	assert.Equal(t, []geom.Point{geom.Pt(1.23, 0, 0)}, r.Points())

	r, err = note.Transform(geom.Translation(geom.Pt(1, 0, 0)))
	require.NoError(t, err)
	assert.Same(t, note, r)
	assert.InDelta(t, 2.23, r.Points()[0].X, 1e-9)
}

func TestGroupLaterSplitsByOverlap(t *testing.T) {
	k := bsp.New()
	p := box(k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	p.GroupLater(box(k, geom.Pt(5, 0, 0), geom.Pt(6, 1, 1)))
	p.GroupLater(box(k, geom.Pt(0.5, 0, 0), geom.Pt(1.5, 1, 1)))
	p.GroupLater(box(k, geom.Pt(5.5, 0, 0), geom.Pt(7, 1, 1)))
	assert.Equal(t, 3, p.Pending())
	assert.Len(t, p.acc.groups, 1)
	assert.Len(t, p.acc.unions, 2)

	r, err := p.Combine()
	require.NoError(t, err)
	assert.Zero(t, r.Pending())
	assert.InDelta(t, 1.5+2, size(t, r), 1e-6)
}

func TestComplementIsUnbounded(t *testing.T) {
	p := box(bsp.New(), geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	c, err := p.Complement()
	require.NoError(t, err)
	assert.False(t, c.Bounds().IsBounded())

	_, err = FromMesh(bsp.New(), shapes.Square(1, 1, false)).Complement()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestTransformKeepsFacesOutward(t *testing.T) {
	tests := []struct {
		name string
		k    kernel.Kernel
	}{
		{"plain mesh", nil},
		{"kernel", bsp.New()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := box(tt.k, geom.Pt(0, 0, 0), geom.Pt(1, 2, 3))
			if tt.k != nil {
				_, err := p.Solid()
				require.NoError(t, err)
			}
			r, err := p.Transform(geom.Scaling(geom.Pt(-1, 1, 1)))
			require.NoError(t, err)
			b := r.Bounds()
			assert.InDelta(t, -1, b.Min.X, 1e-9)
			assert.InDelta(t, 0, b.Max.X, 1e-9)
			assert.InDelta(t, 6, size(t, r), 1e-9)
			m, err := r.Mesh()
			require.NoError(t, err)
			assert.Positive(t, signedMeshVolume(m))
		})
	}
}

func signedMeshVolume(m *kernel.Mesh) float64 {
	at := func(i uint32) geom.Point {
		return geom.Pt(float64(m.Vertices[3*i]), float64(m.Vertices[3*i+1]), float64(m.Vertices[3*i+2]))
	}
	var vol float64
	for i := 0; i+2 < len(m.Indices); i += 3 {
		vol += geom.Dot(at(m.Indices[i]), geom.Cross(at(m.Indices[i+1]), at(m.Indices[i+2])))
	}
	return vol / 6
}

func TestResizeAndAlign(t *testing.T) {
	p := box(nil, geom.Pt(1, 1, 1), geom.Pt(3, 3, 3))
	r, err := p.Resize([3]bool{true, true, false}, geom.Pt(4, 0, 0))
	require.NoError(t, err)
	s := r.Bounds().Size()
	assert.InDelta(t, 4, s.X, 1e-9)
	assert.InDelta(t, 4, s.Y, 1e-9)
	assert.InDelta(t, 2, s.Z, 1e-9)

	r, err = r.Align(true, []Face{Top})
	require.NoError(t, err)
	b := r.Bounds()
	assert.InDelta(t, 0, b.Max.Z, 1e-9)
	assert.InDelta(t, 0, b.Center().X, 1e-9)
	assert.InDelta(t, 0, b.Center().Y, 1e-9)

	f, err := ParseFace("east")
	require.NoError(t, err)
	assert.Equal(t, East, f)
	_, err = ParseFace("up")
	assert.Error(t, err)
}

func TestLinearExtrude(t *testing.T) {
	tests := []struct {
		name string
		k    kernel.Kernel
	}{
		{"plain mesh", nil},
		{"kernel", bsp.New()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sq := FromMesh(tt.k, shapes.Square(2, 2, false))
			p, err := sq.LinearExtrude(3, geom.Pt(0, 0, 1))
			require.NoError(t, err)
			assert.Equal(t, Volume, p.Type())
			assert.InDelta(t, 12, size(t, p), 1e-9)
			assert.InDelta(t, 3, p.Bounds().Max.Z, 1e-9)
		})
	}

	_, err := FromMesh(nil, shapes.Square(1, 1, false)).LinearExtrude(1, geom.Point{})
	assert.ErrorIs(t, err, ErrUnsupported)

	seg, err := FromMesh(nil, shapes.PointSet([]geom.Point{geom.Pt(0, 0, 0)})).LinearExtrude(2, geom.Pt(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, Lines, seg.Type())
}

func TestRotateExtrude(t *testing.T) {
	profile := func() *Primitive {
		return FromMesh(nil, shapes.Polygon([]geom.Point{
			geom.Pt(1, 0, 0), geom.Pt(2, 0, 0), geom.Pt(2, 1, 0), geom.Pt(1, 1, 0),
		}, nil))
	}
	ring := 0.5 * 64 * math.Sin(2*math.Pi/64) * (4 - 1)

	tests := []struct {
		name  string
		sweep float64
		want  float64
	}{
		{"full turn", 360, ring},
		{"quarter turn", 90, ring / 4},
		{"reverse quarter turn", -90, ring / 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := profile().RotateExtrude(0, 0, tt.sweep, 64, geom.Pt(0, 0, 1))
			require.NoError(t, err)
			assert.Equal(t, Volume, p.Type())
			assert.InDelta(t, tt.want, size(t, p), 1e-6)
			assert.Positive(t, signedVolume(p.Points(), p.faces()))
		})
	}

	_, err := box(nil, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1)).RotateExtrude(0, 0, 360, 16, geom.Pt(0, 0, 1))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMinkowski(t *testing.T) {
	k := bsp.New()
	a := box(k, geom.Pt(0, 0, 0), geom.Pt(2, 2, 2))
	b := box(k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	m, err := a.Minkowski(b)
	require.NoError(t, err)
	assert.InDelta(t, 27, size(t, m), 1e-6)

	pts := FromMesh(k, shapes.PointSet([]geom.Point{geom.Pt(0, 0, 0), geom.Pt(0, 5, 0)}))
	path := FromMesh(k, shapes.Polyline([]geom.Point{geom.Pt(0, 0, 0), geom.Pt(1, 0, 0)}))
	g, err := pts.Glide(path)
	require.NoError(t, err)
	assert.Equal(t, Lines, g.Type())
	assert.Len(t, g.Polygons(), 2)

	_, err = pts.Glide(a)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMinkowskiRefusesNonConvexFieldPieces(t *testing.T) {
	k := sdfx.New(16)
	l, err := box(k, geom.Pt(0, 0, 0), geom.Pt(2, 1, 1)).Union(box(k, geom.Pt(0, 0, 0), geom.Pt(1, 2, 1)))
	require.NoError(t, err)
	_, err = l.Minkowski(box(k, geom.Pt(0, 0, 0), geom.Pt(0.5, 0.5, 0.5)))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDecompose(t *testing.T) {
	k := bsp.New()
	l, err := box(k, geom.Pt(0, 0, 0), geom.Pt(2, 1, 1)).Union(box(k, geom.Pt(0, 0, 0), geom.Pt(1, 2, 1)))
	require.NoError(t, err)
	d, err := l.Decompose()
	require.NoError(t, err)
	assert.InDelta(t, 3, size(t, d), 1e-6)
	require.GreaterOrEqual(t, len(d.Children()), 2)
	total := 0.0
	for _, c := range d.Children() {
		total += size(t, c)
	}
	assert.InDelta(t, 3, total, 1e-6)

	c, err := box(k, geom.Pt(0, 0, 0), geom.Pt(1, 2, 3)).Decompose()
	require.NoError(t, err)
	assert.Len(t, c.Children(), 1)
}

func meshArea(m *kernel.Mesh) float64 {
	at := func(i uint32) geom.Point {
		return geom.Pt(float64(m.Vertices[3*i]), float64(m.Vertices[3*i+1]), float64(m.Vertices[3*i+2]))
	}
	var area float64
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := at(m.Indices[i]), at(m.Indices[i+1]), at(m.Indices[i+2])
		area += geom.Norm(geom.Cross(geom.Sub(b, a), geom.Sub(c, a))) / 2
	}
	return area
}

func TestProjection(t *testing.T) {
	// A 10x10x10 block on the ground with a second one stepped up
	// beside it: only the first touches z=0, both are seen from above.
	stepped := func() *Primitive {
		k := bsp.New()
		p, err := box(k, geom.Pt(0, 0, 0), geom.Pt(10, 10, 10)).Union(box(k, geom.Pt(10, 0, 5), geom.Pt(20, 10, 15)))
		require.NoError(t, err)
		return p
	}
	tests := []struct {
		name string
		base bool
		want float64
	}{
		{"base", true, 100},
		{"shadow", false, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := stepped().Projection(tt.base)
			require.NoError(t, err)
			assert.Equal(t, Surface, p.Type())
			b := p.Bounds()
			assert.InDelta(t, 0, b.Min.Z, 1e-6)
			assert.InDelta(t, 0, b.Max.Z, 1e-6)
			m, err := p.Mesh()
			require.NoError(t, err)
			assert.InDelta(t, tt.want, meshArea(m), 1e-6)
		})
	}
}

func TestInset(t *testing.T) {
	sq := FromMesh(bsp.New(), shapes.Square(10, 10, false))
	r, err := sq.Inset(1)
	require.NoError(t, err)
	m, err := r.Mesh()
	require.NoError(t, err)
	assert.InDelta(t, 64, meshArea(m), 1e-6)
	b := r.Bounds()
	assert.InDelta(t, 1, b.Min.X, 1e-9)
	assert.InDelta(t, 9, b.Max.X, 1e-9)

	_, err = box(bsp.New(), geom.Pt(0, 0, 0), geom.Pt(1, 1, 1)).Inset(0.1)
	assert.ErrorIs(t, err, ErrUnsupported)
}

// closed reports whether every directed edge of p has its reverse.
func closed(p *Primitive) bool {
	edges := map[[2]int]int{}
	for _, pg := range p.Polygons() {
		n := len(pg.Indices)
		for i, v := range pg.Indices {
			edges[[2]int{v, pg.Indices[(i+1)%n]}]++
		}
	}
	for e, n := range edges {
		if n != 1 || edges[[2]int{e[1], e[0]}] != 1 {
			return false
		}
	}
	return len(edges) > 0
}

func TestSubdivideAndSimplify(t *testing.T) {
	p := box(bsp.New(), geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	s, err := p.Subdivide(1)
	require.NoError(t, err)
	assert.Equal(t, Volume, s.Type())
	assert.True(t, closed(s))
	fine := len(s.Polygons())
	assert.Greater(t, fine, 6)

	r, err := s.Simplify(0.5)
	require.NoError(t, err)
	assert.Equal(t, Volume, r.Type())
	assert.True(t, closed(r))
	assert.Less(t, len(r.Polygons()), fine)

	plain := box(nil, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	same, err := plain.Subdivide(2)
	require.NoError(t, err)
	assert.Same(t, plain, same)
	assert.Len(t, same.Polygons(), 6)
}

func TestSlice(t *testing.T) {
	k := bsp.New()
	p := box(k, geom.Pt(0, 0, 0), geom.Pt(10, 10, 10))
	s, err := p.Slice(5, 2)
	require.NoError(t, err)
	assert.InDelta(t, 200, size(t, s), 1e-6)

	q := box(k, geom.Pt(0, 0, 0), geom.Pt(10, 10, 10))
	section, err := q.Slice(5, 0)
	require.NoError(t, err)
	assert.Equal(t, Surface, section.Type())
	b := section.Bounds()
	assert.InDelta(t, 5, b.Min.Z, 1e-9)
	assert.InDelta(t, 5, b.Max.Z, 1e-9)
}

func TestTriangulateSurfaceWithHole(t *testing.T) {
	pts := []geom.Point{
		geom.Pt(0, 0, 0), geom.Pt(4, 0, 0), geom.Pt(4, 4, 0), geom.Pt(0, 4, 0),
		geom.Pt(1, 1, 0), geom.Pt(3, 1, 0), geom.Pt(3, 3, 0), geom.Pt(1, 3, 0),
	}
	p := FromMesh(nil, shapes.Polygon(pts, [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}}))
	r, err := p.Triangulate()
	require.NoError(t, err)
	area := 0.0
	for _, pg := range r.Polygons() {
		require.Equal(t, 3, pg.Len())
		l := pg.Points(r.Points())
		area += geom.Cross(geom.Sub(l[1], l[0]), geom.Sub(l[2], l[0])).Z / 2
	}
	assert.InDelta(t, 12, area, 1e-9)
}

func TestMeshOfCube(t *testing.T) {
	m, err := box(nil, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1)).Mesh()
	require.NoError(t, err)
	assert.Equal(t, 12, m.TriangleCount())
	assert.InDelta(t, 1, signedMeshVolume(m), 1e-6)
}

func TestCopyIsIndependent(t *testing.T) {
	p := box(bsp.New(), geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	c := p.Copy()
	_, err := c.Transform(geom.Translation(geom.Pt(10, 0, 0)))
	require.NoError(t, err)
	assert.InDelta(t, 0, p.Bounds().Min.X, 1e-9)
	assert.InDelta(t, 10, c.Bounds().Min.X, 1e-9)
	assert.NotEqual(t, p.ID, c.ID)
}
