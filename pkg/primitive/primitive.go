// Package primitive implements the geometric value that evaluation
// produces and combines. A Primitive is either kernel-backed, holding a
// solid that is materialized on first use from its explicit point pool
// and polygons, or a plain mesh when no kernel is configured. Every
// operation documents what the plain-mesh representation does.
package primitive

import (
	"math"

	"github.com/chazu/facet/pkg/explorer"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Shape kinds.
const (
	Volume  = geom.Volume
	Surface = geom.Surface
	Lines   = geom.Lines
	Points  = geom.Points
)

// Option configures a Primitive.
type Option func(*Primitive)

// WithLogger sets the logger a Primitive and everything derived from it
// reports to.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Primitive) { p.log = l }
}

// Primitive is a shape under evaluation. It is owned by one goroutine at a
// time and is not safe for concurrent use.
type Primitive struct {
	ID uuid.UUID

	kind       geom.Kind
	k          kernel.Kernel
	log        zerolog.Logger
	annotation string

	// solid is authoritative when set. The pool is then a cache of its
	// boundary, rebuilt on demand.
	solid    kernel.Solid
	lift     *geom.Plane
	derived  bool
	points   []geom.Point
	polygons []*geom.Polygon

	sanitized bool
	children  []*Primitive
	acc       accumulator
}

// New returns an empty Primitive of the given kind. A nil kernel selects
// the plain-mesh representation.
func New(k kernel.Kernel, kind geom.Kind, opts ...Option) *Primitive {
	p := &Primitive{ID: uuid.New(), kind: kind, k: k, log: zerolog.Nop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// FromMesh returns a Primitive holding a copy of m.
func FromMesh(k kernel.Kernel, m geom.IndexedMesh, opts ...Option) *Primitive {
	p := New(k, m.Kind, opts...)
	p.points = append([]geom.Point(nil), m.Points...)
	for _, f := range m.Faces {
		p.polygons = append(p.polygons, geom.NewPolygon(append([]int(nil), f...)...))
	}
	return p
}

// FromSolid returns a Volume backed by s.
func FromSolid(k kernel.Kernel, s kernel.Solid, opts ...Option) *Primitive {
	p := New(k, Volume, opts...)
	p.setSolid(s)
	return p
}

// Annotate wraps child in a non-solid annotation Primitive named name.
// Geometry queries on the annotation answer for child, and operations on
// it rewrite child while the annotation stays on top.
func Annotate(name string, child *Primitive) *Primitive {
	p := New(nil, child.kind, WithLogger(child.log))
	p.annotation = name
	p.AppendChild(child)
	return p
}

// derive returns an empty Primitive sharing p's kernel and logger.
func (p *Primitive) derive(kind geom.Kind) *Primitive {
	return New(p.k, kind, WithLogger(p.log))
}

// Type returns the shape kind.
func (p *Primitive) Type() geom.Kind { return p.kind }

// Annotation returns the annotation name, empty for ordinary shapes.
func (p *Primitive) Annotation() string { return p.annotation }

// Kernel returns the kernel backing p, nil for plain meshes.
func (p *Primitive) Kernel() kernel.Kernel { return p.k }

// IsFullyDimensional reports whether p is a volume.
func (p *Primitive) IsFullyDimensional() bool {
	if p.annotation != "" {
		return len(p.children) > 0 && p.children[0].IsFullyDimensional()
	}
	return p.kind == Volume
}

// solidBacked reports whether p takes part in kernel set algebra.
func (p *Primitive) solidBacked() bool {
	return p.annotation == "" && p.k != nil && (p.kind == Volume || p.kind == Surface)
}

// Children returns the provenance children.
func (p *Primitive) Children() []*Primitive { return p.children }

// AppendChild records c as a provenance child of p.
func (p *Primitive) AppendChild(c *Primitive) {
	if c != nil && c != p {
		p.children = append(p.children, c)
	}
}

// AppendVertex adds a point to the pool and returns its index.
func (p *Primitive) AppendVertex(pt geom.Point) int {
	p.explicit()
	p.dropSolid()
	p.points = append(p.points, pt)
	return len(p.points) - 1
}

// AppendPolygon adds a polygon over existing pool indices.
func (p *Primitive) AppendPolygon(indices ...int) *geom.Polygon {
	p.explicit()
	p.dropSolid()
	pg := geom.NewPolygon(indices...)
	p.polygons = append(p.polygons, pg)
	return pg
}

// AppendLoop adds the points of loop and a polygon over them.
func (p *Primitive) AppendLoop(loop []geom.Point) {
	idx := make([]int, len(loop))
	for i, pt := range loop {
		idx[i] = p.AppendVertex(pt)
	}
	p.AppendPolygon(idx...)
}

func (p *Primitive) setSolid(s kernel.Solid) {
	p.solid = s
	p.lift = nil
	p.clearPool()
	p.derived = false
}

// dropSolid makes the pool authoritative.
func (p *Primitive) dropSolid() {
	p.solid = nil
	p.lift = nil
	p.derived = false
}

func (p *Primitive) clearPool() {
	for _, pg := range p.polygons {
		pg.Invalidate()
	}
	p.points, p.polygons = nil, nil
	p.sanitized = false
}

// setLoops replaces the geometry with loops, sharing exactly equal
// points.
func (p *Primitive) setLoops(kind geom.Kind, loops [][]geom.Point) {
	index := map[geom.Point]int{}
	var pts []geom.Point
	faces := make([][]int, 0, len(loops))
	for _, l := range loops {
		f := make([]int, len(l))
		for i, pt := range l {
			j, ok := index[pt]
			if !ok {
				j = len(pts)
				index[pt] = j
				pts = append(pts, pt)
			}
			f[i] = j
		}
		faces = append(faces, f)
	}
	p.setMesh(kind, pts, faces)
}

// explicit fills the pool from the solid when the solid is authoritative.
// A failed extraction leaves the pool empty and is logged.
func (p *Primitive) explicit() {
	if err := p.extract(); err != nil {
		p.log.Warn().Err(err).Str("primitive", p.ID.String()).Msg("cannot extract boundary")
	}
}

func (p *Primitive) extract() error {
	if p.solid == nil || p.derived {
		return nil
	}
	p.derived = true
	if p.solid.IsEmpty() {
		return nil
	}
	faces, err := p.boundaryFaces()
	if err != nil {
		return err
	}
	e := explorer.FromFaces(faces, explorer.WithLogger(p.log))
	p.points = e.Points
	p.polygons = nil
	for _, f := range e.Faces {
		p.polygons = append(p.polygons, geom.NewPolygon(f...))
	}
	return nil
}

// boundaryFaces returns the faces of the solid, unlifted for surfaces.
func (p *Primitive) boundaryFaces() ([][]geom.Point, error) {
	faces, err := kernel.Guard("boundary", func() ([][]geom.Point, error) {
		return p.k.Boundary(p.solid)
	})
	if err != nil || p.lift == nil {
		return faces, err
	}
	return unlift(faces, *p.lift), nil
}

// Points returns the point pool. For a kernel-backed shape the pool is the
// welded boundary of the solid.
func (p *Primitive) Points() []geom.Point {
	if p.annotation != "" {
		return p.child().Points()
	}
	p.explicit()
	return p.points
}

// Polygons returns the polygons over Points.
func (p *Primitive) Polygons() []*geom.Polygon {
	if p.annotation != "" {
		return p.child().Polygons()
	}
	p.explicit()
	return p.polygons
}

func (p *Primitive) child() *Primitive {
	if len(p.children) == 0 {
		return New(nil, p.kind)
	}
	return p.children[0]
}

// setChild replaces the geometry an annotation wraps.
func (p *Primitive) setChild(c *Primitive) {
	p.kind = c.kind
	if len(p.children) == 0 {
		p.children = []*Primitive{c}
		return
	}
	p.children[0] = c
}

// loops resolves every polygon to its points.
func (p *Primitive) loops() [][]geom.Point {
	pts := p.Points()
	var out [][]geom.Point
	for _, pg := range p.Polygons() {
		out = append(out, pg.Points(pts))
	}
	return out
}

func (p *Primitive) faces() [][]int {
	out := make([][]int, 0, len(p.polygons))
	for _, pg := range p.Polygons() {
		out = append(out, pg.Indices)
	}
	return out
}

// Indexed returns the shape as an indexed mesh.
func (p *Primitive) Indexed() (geom.IndexedMesh, error) {
	if p.annotation != "" {
		return p.child().Indexed()
	}
	if err := p.extract(); err != nil {
		return geom.IndexedMesh{}, p.fail("indexed", err)
	}
	return geom.IndexedMesh{Kind: p.kind, Points: p.Points(), Faces: p.faces()}, nil
}

// IsEmpty reports whether p holds no geometry.
func (p *Primitive) IsEmpty() bool {
	if p.annotation != "" {
		return p.child().IsEmpty()
	}
	if p.solid != nil {
		return p.solid.IsEmpty()
	}
	return len(p.polygons) == 0 && (p.kind != Points || len(p.points) == 0)
}

// Bounds returns the axis-aligned bounds. A complement is unbounded.
func (p *Primitive) Bounds() geom.BBox {
	if p.annotation != "" {
		return p.child().Bounds()
	}
	if p.solid != nil {
		return kernel.Bounds(p.solid)
	}
	b := geom.EmptyBBox()
	if p.kind == Points {
		return geom.BBoxOf(p.points)
	}
	for _, pg := range p.polygons {
		for _, i := range pg.Indices {
			b = b.Extend(p.points[i])
		}
	}
	return b
}

// Solid materializes and returns the kernel solid.
func (p *Primitive) Solid() (kernel.Solid, error) {
	return p.materialize()
}

func (p *Primitive) materialize() (kernel.Solid, error) {
	if p.solid != nil {
		return p.solid, nil
	}
	if p.k == nil {
		return nil, p.unsupported("materialize", "no kernel configured")
	}
	var (
		s   kernel.Solid
		err error
	)
	switch p.kind {
	case Volume:
		s, err = p.buildVolume()
	case Surface:
		pl, ok := p.surfacePlane()
		if !ok {
			return nil, p.unsupported("materialize", "surface is not planar")
		}
		s, err = p.liftSolid(pl)
		if err == nil {
			p.lift = &pl
		}
	default:
		return nil, p.unsupported("materialize", "shape has no volume")
	}
	if err != nil {
		return nil, p.fail("materialize", err)
	}
	p.solid = s
	p.derived = true
	return s, nil
}

// buildVolume builds the solid through the boundary builder. When the
// faces do not form a legal boundary the mesh is sanitized and built once
// more. If that fails too, the unrepaired loops go to FromPolygons as a
// facet soup and the kernel makes what it can of them.
func (p *Primitive) buildVolume() (kernel.Solid, error) {
	if len(p.polygons) == 0 {
		return p.k.Empty(), nil
	}
	faces := p.faces()
	m, err := mesh.Build(p.points, faces, p.sanitized)
	if err != nil {
		p.log.Debug().Err(err).Str("primitive", p.ID.String()).Msg("boundary build failed, sanitizing")
		raw := mesh.New(p.points, faces).Clone()
		if mesh.NewSanitizer(raw).Sanitize() {
			m, err = mesh.Build(raw.Points, raw.Faces, false)
		}
	}
	loops := p.loops()
	if err == nil && m != nil {
		p.sanitized = true
		loops = m.Loops()
	} else {
		p.log.Warn().
			Str("primitive", p.ID.String()).
			Str("fallback", "facet-soup").
			Msg("boundary construction failed, passing unrepaired loops to the kernel")
	}
	return kernel.Guard("from_polygons", func() (kernel.Solid, error) {
		return p.k.FromPolygons(loops)
	})
}

// tolerance scales geom.Epsilon with the extent of p.
func (p *Primitive) tolerance() float64 {
	b := p.Bounds()
	if b.IsEmpty() || !b.IsBounded() {
		return 1e-9
	}
	return 1e-9 * math.Max(1, geom.Norm(b.Size()))
}

// Copy returns an independent deep copy. Children are shared; they are
// finished values.
func (p *Primitive) Copy() *Primitive {
	c := &Primitive{
		ID:         uuid.New(),
		kind:       p.kind,
		k:          p.k,
		log:        p.log,
		annotation: p.annotation,
		derived:    p.derived,
		sanitized:  p.sanitized,
		points:     append([]geom.Point(nil), p.points...),
		children:   append([]*Primitive(nil), p.children...),
	}
	if p.solid != nil {
		c.solid = p.k.Copy(p.solid)
	}
	if p.lift != nil {
		pl := *p.lift
		c.lift = &pl
	}
	for _, pg := range p.polygons {
		c.polygons = append(c.polygons, pg.Clone())
	}
	c.acc = p.acc.clone()
	return c
}

// setMesh replaces the geometry with pts and faces.
func (p *Primitive) setMesh(kind geom.Kind, pts []geom.Point, faces [][]int) {
	p.dropSolid()
	p.clearPool()
	p.kind = kind
	p.points = append([]geom.Point(nil), pts...)
	for _, f := range faces {
		p.polygons = append(p.polygons, geom.NewPolygon(append([]int(nil), f...)...))
	}
}
