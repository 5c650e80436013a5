package primitive

import (
	"fmt"
	"math"
	"strconv"

	"github.com/chazu/facet/pkg/explorer"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/planar"
	"github.com/cockroachdb/apd/v3"
)

// Transform applies m in place. Kernel solids are transformed by the
// kernel; everything else moves its point pool, rewinding polygons when m
// mirrors so that faces keep pointing outward.
func (p *Primitive) Transform(m geom.Transform) (*Primitive, error) {
	if p.annotation != "" {
		c, err := p.child().Transform(m)
		if err != nil {
			return nil, err
		}
		p.setChild(c)
		return p, nil
	}
	if p.solid != nil && p.lift == nil {
		s, err := kernel.Guard("transform", func() (kernel.Solid, error) { return p.k.Transform(p.solid, m) })
		if err != nil {
			return nil, p.fail("transform", err)
		}
		p.setSolid(s)
		return p, nil
	}
	p.explicit()
	p.dropSolid()
	for i, pt := range p.points {
		p.points[i] = m.Apply(pt)
	}
	if m.Mirrors() && (p.kind == Volume || p.kind == Surface) {
		for i, pg := range p.polygons {
			p.polygons[i] = pg.Reversed()
		}
	} else {
		for _, pg := range p.polygons {
			pg.Invalidate()
		}
	}
	return p, nil
}

// Resize scales p so that its bounds measure target. A zero target
// component leaves that axis to autosize: when set, it takes the largest
// scale of the axes that were given, otherwise it is kept.
func (p *Primitive) Resize(autosize [3]bool, target geom.Point) (*Primitive, error) {
	b := p.Bounds()
	if b.IsEmpty() || !b.IsBounded() {
		return p, nil
	}
	size := b.Size()
	var scale [3]float64
	var given [3]bool
	auto := 0.0
	for i := 0; i < 3; i++ {
		t, s := geom.Component(target, i), geom.Component(size, i)
		if t > 0 && s > 0 {
			scale[i] = t / s
			given[i] = true
			auto = math.Max(auto, scale[i])
		}
	}
	for i := 0; i < 3; i++ {
		switch {
		case given[i]:
		case autosize[i] && auto > 0:
			scale[i] = auto
		default:
			scale[i] = 1
		}
	}
	return p.Transform(geom.Scaling(geom.Pt(scale[0], scale[1], scale[2])))
}

// Face names a side of the bounding box for Align.
type Face int

const (
	Top Face = iota
	Bottom
	North
	South
	East
	West
)

var faceNames = [...]string{"top", "bottom", "north", "south", "east", "west"}

func (f Face) String() string {
	if f < 0 || int(f) >= len(faceNames) {
		return "Face(" + strconv.Itoa(int(f)) + ")"
	}
	return faceNames[f]
}

// ParseFace returns the Face named s.
func ParseFace(s string) (Face, error) {
	for i, n := range faceNames {
		if n == s {
			return Face(i), nil
		}
	}
	return 0, fmt.Errorf("primitive: unknown face %q", s)
}

// Align moves p so that each named face of its bounds lies on the origin
// plane across it: Top puts the highest point on z=0, North the largest
// y, East the largest x. With center set, axes no face names are centred
// on the origin.
func (p *Primitive) Align(center bool, faces []Face) (*Primitive, error) {
	b := p.Bounds()
	if b.IsEmpty() || !b.IsBounded() {
		return p, nil
	}
	var (
		move  geom.Point
		named [3]bool
	)
	for _, f := range faces {
		switch f {
		case Top:
			move.Z, named[2] = -b.Max.Z, true
		case Bottom:
			move.Z, named[2] = -b.Min.Z, true
		case North:
			move.Y, named[1] = -b.Max.Y, true
		case South:
			move.Y, named[1] = -b.Min.Y, true
		case East:
			move.X, named[0] = -b.Max.X, true
		case West:
			move.X, named[0] = -b.Min.X, true
		default:
			return nil, p.unsupported("align", "unknown face "+f.String())
		}
	}
	if center {
		c := b.Center()
		for i := 0; i < 3; i++ {
			if !named[i] {
				move = geom.WithComponent(move, i, -geom.Component(c, i))
			}
		}
	}
	if move == (geom.Point{}) {
		return p, nil
	}
	return p.Transform(geom.Translation(move))
}

// Discrete rounds every coordinate to places decimal places, half away
// from zero. A solid is replaced by its rounded boundary.
func (p *Primitive) Discrete(places int) (*Primitive, error) {
	if p.annotation != "" {
		c, err := p.child().Discrete(places)
		if err != nil {
			return nil, err
		}
		p.setChild(c)
		return p, nil
	}
	if err := p.extract(); err != nil {
		return nil, p.fail("discrete", err)
	}
	p.dropSolid()
	p.sanitized = false
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfUp
	round := func(v float64) (float64, error) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return v, nil
		}
		d, _, err := apd.NewFromString(strconv.FormatFloat(v, 'g', -1, 64))
		if err != nil {
			return 0, err
		}
		var out apd.Decimal
		if _, err := ctx.Quantize(&out, d, -int32(places)); err != nil {
			return 0, err
		}
		return out.Float64()
	}
	for i, pt := range p.points {
		var c [3]float64
		for axis := 0; axis < 3; axis++ {
			r, err := round(geom.Component(pt, axis))
			if err != nil {
				return nil, p.fail("discrete", err)
			}
			c[axis] = r
		}
		p.points[i] = geom.Pt(c[0], c[1], c[2])
	}
	for _, pg := range p.polygons {
		pg.Invalidate()
	}
	return p, nil
}

// Volume reports the size, centre of mass and bounds of p. Shapes without
// volume report only their bounds. A plain mesh integrates its faces
// directly.
func (p *Primitive) Volume(calcMass bool) (explorer.Metrics, error) {
	if p.annotation != "" {
		return p.child().Volume(calcMass)
	}
	if p.kind != Volume {
		return explorer.Metrics{Bounds: p.Bounds()}, nil
	}
	if p.k == nil {
		return explorer.FaceMetrics(p.loops(), calcMass), nil
	}
	s, err := p.materialize()
	if err != nil {
		return explorer.Metrics{}, err
	}
	m, err := explorer.Volume(p.k, s, calcMass)
	if err != nil {
		return explorer.Metrics{}, p.fail("volume", err)
	}
	return m, nil
}

// Mesh returns the flat triangle mesh of p for rendering. Polylines and
// point sets have no triangles.
func (p *Primitive) Mesh() (*kernel.Mesh, error) {
	if p.annotation != "" {
		m, err := p.child().Mesh()
		if err != nil {
			return nil, err
		}
		m.Name = p.annotation
		return m, nil
	}
	m := &kernel.Mesh{}
	if p.kind == Lines || p.kind == Points {
		return m, nil
	}
	if err := p.extract(); err != nil {
		return nil, p.fail("mesh", err)
	}
	for _, l := range p.loops() {
		if len(l) < 3 {
			continue
		}
		if len(l) == 3 {
			m.AddTriangle(l[0], l[1], l[2])
			continue
		}
		tris, ok := planar.TriangulateFace(l)
		if !ok {
			for i := 1; i+1 < len(l); i++ {
				m.AddTriangle(l[0], l[i], l[i+1])
			}
			continue
		}
		for _, t := range tris {
			m.AddTriangle(l[t[0]], l[t[1]], l[t[2]])
		}
	}
	return m, nil
}
