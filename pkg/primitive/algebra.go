package primitive

import (
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
)

type solidOp func(k kernel.Kernel, a, b kernel.Solid) (kernel.Solid, error)

// Union returns the union of p and o. o becomes a child of the result.
// Plain meshes, polylines and point sets concatenate their geometry.
func (p *Primitive) Union(o *Primitive) (*Primitive, error) {
	return p.apply("union", o, kernel.Kernel.Union)
}

// Group is Union for operands that were not combined through the full
// algebra, such as disjoint shapes that merely touch.
func (p *Primitive) Group(o *Primitive) (*Primitive, error) {
	return p.apply("group", o, kernel.Kernel.Group)
}

// Intersection returns the common part of p and o. Operands with disjoint
// bounds give an empty result without calling the kernel. A plain mesh is
// returned unchanged.
func (p *Primitive) Intersection(o *Primitive) (*Primitive, error) {
	return p.apply("intersection", o, kernel.Kernel.Intersection)
}

// Difference removes o from p. A plain mesh is returned unchanged.
func (p *Primitive) Difference(o *Primitive) (*Primitive, error) {
	return p.apply("difference", o, kernel.Kernel.Difference)
}

// SymmetricDifference keeps what lies in exactly one of p and o. A plain
// mesh is returned unchanged.
func (p *Primitive) SymmetricDifference(o *Primitive) (*Primitive, error) {
	return p.apply("symmetric_difference", o, kernel.Kernel.SymmetricDifference)
}

// Complement replaces a volume with everything outside it. A plain mesh
// is returned unchanged.
func (p *Primitive) Complement() (*Primitive, error) {
	if p.k == nil {
		return p.needsKernel("complement"), nil
	}
	if p.kind != Volume || p.annotation != "" {
		return nil, p.unsupported("complement", "only volumes have a complement")
	}
	s, err := p.materialize()
	if err != nil {
		return nil, err
	}
	c, err := kernel.Guard("complement", func() (kernel.Solid, error) { return p.k.Complement(s) })
	if err != nil {
		return nil, p.fail("complement", err)
	}
	p.setSolid(c)
	return p, nil
}

func (p *Primitive) needsKernel(op string) *Primitive {
	p.log.Info().Str("op", op).Msg("operation needs a solid kernel, shape left unchanged")
	return p
}

func additive(op string) bool {
	return op == "union" || op == "group"
}

func (p *Primitive) apply(op string, o *Primitive, fn solidOp) (*Primitive, error) {
	if o == nil {
		return p, nil
	}
	// An annotation keeps wrapping the whole result: the other operand is
	// combined into its child. A subtracted or intersected annotation only
	// lends its geometry.
	if p.annotation != "" {
		c, err := p.child().apply(op, o, fn)
		if err != nil {
			return nil, err
		}
		p.setChild(c)
		return p, nil
	}
	if o.annotation != "" {
		c, err := p.apply(op, o.child(), fn)
		if err != nil {
			return nil, err
		}
		if !additive(op) {
			return c, nil
		}
		o.setChild(c)
		return o, nil
	}

	if p.k == nil {
		if !additive(op) {
			return p.needsKernel(op), nil
		}
		if p.kind == o.kind {
			p.concat(o)
			p.AppendChild(o)
			return p, nil
		}
	}

	if op == "intersection" && !p.Bounds().Overlaps(o.Bounds()) {
		p.dropSolid()
		p.clearPool()
		p.AppendChild(o)
		return p, nil
	}

	if p.kind != o.kind {
		if !additive(op) {
			return nil, p.unsupported(op, "operands of different dimension")
		}
		hi, lo := p, o
		if o.kind < p.kind {
			hi, lo = o, p
		}
		p.log.Warn().
			Str("op", op).
			Stringer("kept", hi.kind).
			Stringer("dropped", lo.kind).
			Msg("mixed-dimension union keeps the higher dimension")
		hi.AppendChild(lo)
		return hi, nil
	}

	switch p.kind {
	case Volume:
		a, err := p.materialize()
		if err != nil {
			return nil, err
		}
		b, err := o.materialize()
		if err != nil {
			return nil, err
		}
		r, err := kernel.Guard(op, func() (kernel.Solid, error) { return fn(p.k, a, b) })
		if err != nil {
			return nil, p.fail(op, err)
		}
		p.setSolid(r)
	case Surface:
		pl, ok := coplanar(p, o)
		if !ok {
			if additive(op) {
				p.concat(o)
				p.AppendChild(o)
				return p, nil
			}
			return nil, p.unsupported(op, "surfaces are not coplanar")
		}
		a, err := liftedSolid(p, pl)
		if err != nil {
			return nil, p.fail(op, err)
		}
		b, err := liftedSolid(o, pl)
		if err != nil {
			return nil, p.fail(op, err)
		}
		r, err := kernel.Guard(op, func() (kernel.Solid, error) { return fn(p.k, a, b) })
		if err != nil {
			return nil, p.fail(op, err)
		}
		p.setSolid(r)
		p.lift = &pl
	default:
		if !additive(op) {
			return nil, p.unsupported(op, "shape has no volume")
		}
		p.concat(o)
	}
	p.AppendChild(o)
	return p, nil
}

// concat appends o's geometry to p's pool.
func (p *Primitive) concat(o *Primitive) {
	p.explicit()
	p.dropSolid()
	p.sanitized = false
	base := len(p.points)
	p.points = append(p.points, o.Points()...)
	for _, pg := range o.Polygons() {
		idx := make([]int, len(pg.Indices))
		for i, v := range pg.Indices {
			idx[i] = v + base
		}
		p.polygons = append(p.polygons, geom.NewPolygon(idx...))
	}
}
