package primitive

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/hull"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/samber/lo"
)

// maxSums bounds the point sums taken for one pair of convex pieces.
const maxSums = 1 << 20

// convex reports whether no point lies outside the plane of any face.
// Faces must wind outward.
func convex(faces [][]geom.Point, pts []geom.Point) bool {
	box := geom.BBoxOf(pts)
	tol := 1e-5 * math.Max(1, geom.Norm(box.Size()))
	for _, f := range faces {
		pl, ok := geom.PlaneOf(f)
		if !ok {
			continue
		}
		for _, pt := range pts {
			if pl.Distance(pt) > tol {
				return false
			}
		}
	}
	return true
}

// convexPieces splits p into convex point sets whose union is p.
func (p *Primitive) convexPieces() ([][]geom.Point, error) {
	switch p.kind {
	case Volume:
		s, err := p.materialize()
		if err != nil {
			return nil, err
		}
		solids, err := kernel.Guard("decompose", func() ([]kernel.Solid, error) { return p.k.Decompose(s) })
		if err != nil {
			return nil, err
		}
		var out [][]geom.Point
		for _, piece := range solids {
			faces, err := kernel.Guard("boundary", func() ([][]geom.Point, error) { return p.k.Boundary(piece) })
			if err != nil {
				return nil, err
			}
			pts := lo.Uniq(lo.Flatten(faces))
			if !convex(faces, pts) {
				return nil, fmt.Errorf("%w: %s kernel split the solid into a non-convex piece", ErrUnsupported, p.k.Name())
			}
			out = append(out, pts)
		}
		return out, nil
	case Surface:
		return p.filled()
	case Lines:
		var out [][]geom.Point
		for _, l := range p.loops() {
			for i := 0; i+1 < len(l); i++ {
				out = append(out, []geom.Point{l[i], l[i+1]})
			}
		}
		return out, nil
	default:
		return lo.Map(p.Points(), func(pt geom.Point, _ int) []geom.Point {
			return []geom.Point{pt}
		}), nil
	}
}

// Minkowski replaces p with its Minkowski sum with o. Two volumes go to
// the kernel; when it cannot sum them, or for any lower-dimensional
// operand, the sum is the union of the hulls of every pair of convex
// pieces. A plain mesh is returned unchanged.
func (p *Primitive) Minkowski(o *Primitive) (*Primitive, error) {
	if o == nil {
		return p, nil
	}
	if o.annotation != "" {
		o = o.child()
	}
	if p.annotation != "" {
		c, err := p.child().Minkowski(o)
		if err != nil {
			return nil, err
		}
		p.setChild(c)
		return p, nil
	}
	if p.k == nil {
		return p.needsKernel("minkowski"), nil
	}
	if p.kind == Volume && o.kind == Volume {
		a, err := p.materialize()
		if err != nil {
			return nil, err
		}
		b, err := o.materialize()
		if err != nil {
			return nil, err
		}
		r, err := kernel.Guard("minkowski", func() (kernel.Solid, error) { return p.k.Minkowski(a, b) })
		switch {
		case err == nil:
			p.setSolid(r)
			p.AppendChild(o)
			return p, nil
		case !errors.Is(err, ErrUnsupported):
			return nil, p.fail("minkowski", err)
		}
		p.log.Debug().Str("kernel", p.k.Name()).Msg("minkowski falls back to convex pieces")
	}

	pa, err := p.convexPieces()
	if err != nil {
		return nil, p.fail("minkowski", err)
	}
	pb, err := o.convexPieces()
	if err != nil {
		return nil, p.fail("minkowski", err)
	}
	var hulls []hull.Result
	best := hull.Empty
	for _, a := range pa {
		for _, b := range pb {
			if len(a)*len(b) > maxSums {
				return nil, p.unsupported("minkowski", fmt.Sprintf("pieces of %d and %d points are too detailed to sum", len(a), len(b)))
			}
			sums := make([]geom.Point, 0, len(a)*len(b))
			for _, u := range a {
				for _, v := range b {
					sums = append(sums, geom.Add(u, v))
				}
			}
			r := hull.Convex(sums)
			if r.Kind > best {
				best = r.Kind
			}
			hulls = append(hulls, r)
		}
	}
	// Pieces of a lower dimension lie within the pieces of the highest.
	hulls = lo.Filter(hulls, func(r hull.Result, _ int) bool { return r.Kind == best })
	p.log.Debug().Int("pieces", len(hulls)).Stringer("kind", best).Msg("minkowski")

	switch best {
	case hull.Empty:
		p.setMesh(p.kind, nil, nil)
	case hull.Volume:
		solids := make([]kernel.Solid, 0, len(hulls))
		for _, r := range hulls {
			s, err := kernel.Guard("from_polygons", func() (kernel.Solid, error) { return p.k.FromPolygons(r.Loops()) })
			if err != nil {
				return nil, p.fail("minkowski", err)
			}
			solids = append(solids, s)
		}
		s, err := kernel.Guard("union_all", func() (kernel.Solid, error) { return p.k.UnionAll(solids) })
		if err != nil {
			return nil, p.fail("minkowski", err)
		}
		p.setSolid(s)
		p.kind = Volume
	default:
		var loops [][]geom.Point
		for _, r := range hulls {
			loops = append(loops, r.Loops()...)
		}
		p.setLoops(hullKind(best), loops)
	}
	p.AppendChild(o)
	return p, nil
}

// Glide sweeps p along the polyline path.
func (p *Primitive) Glide(path *Primitive) (*Primitive, error) {
	if path == nil {
		return p, nil
	}
	if path.Type() != Lines {
		return nil, p.unsupported("glide", "path is not a polyline")
	}
	if p.k == nil {
		return p.needsKernel("glide"), nil
	}
	return p.Minkowski(path)
}
