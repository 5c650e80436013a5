package primitive

import (
	"math"

	"github.com/chazu/facet/pkg/explorer"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/planar"
	"github.com/chazu/facet/pkg/shapes"
	"gonum.org/v1/gonum/spatial/r2"
)

// Decompose splits a volume into convex pieces, each a child of the
// result. The result keeps the whole solid. A plain mesh is returned
// unchanged.
func (p *Primitive) Decompose() (*Primitive, error) {
	if p.k == nil {
		return p.needsKernel("decompose"), nil
	}
	if p.kind != Volume || p.annotation != "" {
		return nil, p.unsupported("decompose", "only volumes decompose")
	}
	s, err := p.materialize()
	if err != nil {
		return nil, err
	}
	pieces, err := kernel.Guard("decompose", func() ([]kernel.Solid, error) { return p.k.Decompose(s) })
	if err != nil {
		return nil, p.fail("decompose", err)
	}
	out := FromSolid(p.k, p.k.Copy(s), WithLogger(p.log))
	for _, piece := range pieces {
		out.AppendChild(FromSolid(p.k, piece, WithLogger(p.log)))
	}
	p.log.Debug().Int("pieces", len(pieces)).Msg("decomposed")
	return out, nil
}

// Boundary returns the faces of a volume as a surface and the perimeter
// loops of a surface as closed polylines. Polylines and point sets are
// their own boundary, as is any plain mesh.
func (p *Primitive) Boundary() (*Primitive, error) {
	if p.annotation != "" {
		return p.child().Boundary()
	}
	if p.k == nil {
		return p, nil
	}
	switch p.kind {
	case Volume:
		if _, err := p.materialize(); err != nil {
			return nil, err
		}
		if err := p.extract(); err != nil {
			return nil, p.fail("boundary", err)
		}
		out := p.derive(Surface)
		out.setMesh(Surface, p.points, p.faces())
		out.AppendChild(p)
		return out, nil
	case Surface:
		e := explorer.FromFaces(p.loops(), explorer.WithLogger(p.log))
		m := e.Perimeter()
		out := p.derive(Lines)
		out.setMesh(Lines, m.Points, m.Faces)
		out.AppendChild(p)
		return out, nil
	default:
		return p, nil
	}
}

// planeGroups partitions loops by the plane they lie in, ignoring
// orientation. Each group carries the plane of its first loop.
func planeGroups(loops [][]geom.Point) (planes []geom.Plane, groups [][][]geom.Point) {
	for _, l := range loops {
		pl, ok := geom.PlaneOf(l)
		if !ok {
			continue
		}
		placed := false
		for i, q := range planes {
			if q.Coincident(pl, 1e-6) || q.Coincident(pl.Flip(), 1e-6) {
				groups[i] = append(groups[i], l)
				placed = true
				break
			}
		}
		if !placed {
			planes = append(planes, pl)
			groups = append(groups, [][]geom.Point{l})
		}
	}
	return planes, groups
}

// Triangulate replaces every polygon with triangles. Coplanar polygons of
// a surface are filled together under the even-odd rule, so a loop
// nested inside another cuts a hole. Polylines and point sets are left
// alone.
func (p *Primitive) Triangulate() (*Primitive, error) {
	if p.annotation != "" || p.kind == Lines || p.kind == Points {
		return p, nil
	}
	var out [][]geom.Point
	if p.kind == Surface {
		tris, err := p.filled()
		if err != nil {
			return nil, p.fail("triangulate", err)
		}
		out = tris
	} else {
		for _, l := range p.loops() {
			out = append(out, triangles(l)...)
		}
	}
	p.setLoops(p.kind, out)
	return p, nil
}

// filled triangulates the polygons of a surface, one plane at a time.
func (p *Primitive) filled() ([][]geom.Point, error) {
	var out [][]geom.Point
	planes, groups := planeGroups(p.loops())
	for i, g := range groups {
		tris, err := planar.TriangulateLoops(g, planes[i])
		if err != nil {
			return nil, err
		}
		var flat []geom.Point
		for _, l := range g {
			flat = append(flat, l...)
		}
		for _, t := range tris {
			out = append(out, []geom.Point{flat[t[0]], flat[t[1]], flat[t[2]]})
		}
	}
	return out, nil
}

// triangles cuts one planar loop, keeping its winding.
func triangles(l []geom.Point) [][]geom.Point {
	if len(l) == 3 {
		return [][]geom.Point{l}
	}
	var out [][]geom.Point
	if tris, ok := planar.TriangulateFace(l); ok {
		for _, t := range tris {
			out = append(out, []geom.Point{l[t[0]], l[t[1]], l[t[2]]})
		}
		return out
	}
	for i := 1; i+1 < len(l); i++ {
		out = append(out, []geom.Point{l[0], l[i], l[i+1]})
	}
	return out
}

// Inset offsets the outline of a flat shape inward by amount, or outward
// when amount is negative, and refills it.
func (p *Primitive) Inset(amount float64) (*Primitive, error) {
	if p.kind != Surface || p.annotation != "" {
		return nil, p.unsupported("inset", "only flat shapes can be offset")
	}
	loops := p.loops()
	if len(loops) == 0 {
		return p, nil
	}
	pl, ok := geom.PlaneOf(loops[0])
	if !ok {
		return nil, p.unsupported("inset", "degenerate face")
	}
	if _, flat := p.surfacePlane(); !flat {
		return nil, p.unsupported("inset", "surface is not planar")
	}
	pr := geom.NewProjection(pl)
	e := explorer.FromFaces(loops, explorer.WithLogger(p.log))
	flat := make([][]r2.Vec, 0, len(e.Loops))
	for _, l := range e.Loops {
		var ring []r2.Vec
		for _, v := range l {
			u, w := pr.Project(e.Points[v])
			ring = append(ring, r2.Vec{X: u, Y: w})
		}
		flat = append(flat, ring)
	}
	offset := planar.Offset(flat, amount)
	tris, err := planar.Triangulate(offset)
	if err != nil {
		return nil, p.fail("inset", err)
	}
	var pool []geom.Point
	for _, ring := range offset {
		for _, v := range ring {
			pool = append(pool, pr.Lift(v.X, v.Y))
		}
	}
	faces := make([][]int, len(tris))
	for i, t := range tris {
		faces[i] = []int{t[0], t[1], t[2]}
	}
	p.setMesh(Surface, pool, faces)
	return p, nil
}

func (p *Primitive) editableMesh(op string) (*mesh.Mesh, error) {
	if p.kind != Volume && p.kind != Surface || p.annotation != "" {
		return nil, p.unsupported(op, "only faces can be refined")
	}
	pts := append([]geom.Point(nil), p.Points()...)
	var faces [][]int
	for _, f := range p.faces() {
		faces = append(faces, append([]int(nil), f...))
	}
	return mesh.New(pts, faces), nil
}

// Subdivide applies level rounds of Loop subdivision to the boundary. A
// plain mesh is returned unchanged.
func (p *Primitive) Subdivide(level int) (*Primitive, error) {
	if p.k == nil {
		return p.needsKernel("subdivide"), nil
	}
	m, err := p.editableMesh("subdivide")
	if err != nil {
		return nil, err
	}
	m.Subdivide(level)
	p.setMesh(p.kind, m.Points, m.Faces)
	return p, nil
}

// Simplify collapses edges until ratio of them remain. A plain mesh is
// returned unchanged.
func (p *Primitive) Simplify(ratio float64) (*Primitive, error) {
	if p.k == nil {
		return p.needsKernel("simplify"), nil
	}
	m, err := p.editableMesh("simplify")
	if err != nil {
		return nil, err
	}
	m.Simplify(ratio)
	p.setMesh(p.kind, m.Points, m.Faces)
	return p, nil
}

// Projection flattens a volume onto the ground plane. With base set only
// the faces already lying in the plane are kept; otherwise every face not
// perpendicular to the plane is flattened and the pieces are unioned. A
// plain mesh is returned unchanged.
func (p *Primitive) Projection(base bool) (*Primitive, error) {
	if p.k == nil {
		return p.needsKernel("projection"), nil
	}
	if p.kind != Volume || p.annotation != "" {
		return nil, p.unsupported("projection", "only volumes project")
	}
	out := p.derive(Surface)
	out.AppendChild(p)
	if base {
		m := explorer.FromFaces(p.loops(), explorer.WithLogger(p.log)).Base()
		var loops [][]geom.Point
		for _, l := range m.Loops() {
			if pl, ok := geom.PlaneOf(l); ok && pl.Normal.Z < 0 {
				l = reverse(l)
			}
			loops = append(loops, l)
		}
		out.setLoops(Surface, loops)
		return out, nil
	}
	var loops [][]geom.Point
	for _, l := range p.loops() {
		pl, ok := geom.PlaneOf(l)
		if !ok || pl.Normal.Z <= 1e-9 {
			continue
		}
		flat := make([]geom.Point, len(l))
		for i, v := range l {
			flat[i] = geom.Pt(v.X, v.Y, 0)
		}
		loops = append(loops, flat)
	}
	out.setLoops(Surface, loops)
	if len(loops) > 0 {
		if _, err := out.materialize(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Slice keeps the part of a volume between height and height+thickness.
// With no thickness the cross-section at height is returned as a
// surface. A plain mesh is returned unchanged.
func (p *Primitive) Slice(height, thickness float64) (*Primitive, error) {
	if p.k == nil {
		return p.needsKernel("slice"), nil
	}
	if p.kind != Volume || p.annotation != "" {
		return nil, p.unsupported("slice", "only volumes slice")
	}
	b := p.Bounds()
	if b.IsEmpty() || !b.IsBounded() {
		return p, nil
	}
	t := thickness
	if t <= 0 {
		t = math.Max(b.Size().Z, 1)
	}
	cutBox := geom.BBox{
		Min: geom.Pt(b.Min.X-1, b.Min.Y-1, height),
		Max: geom.Pt(b.Max.X+1, b.Max.Y+1, height+t),
	}
	cut := FromMesh(p.k, shapes.Box(cutBox), WithLogger(p.log))
	r, err := p.Intersection(cut)
	if err != nil || thickness > 0 {
		return r, err
	}
	section := unlift(r.loops(), geom.Plane{Normal: geom.Pt(0, 0, 1), W: height})
	out := p.derive(Surface)
	out.setLoops(Surface, section)
	out.AppendChild(r)
	return out, nil
}
