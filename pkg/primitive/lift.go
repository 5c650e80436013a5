package primitive

import (
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
)

// Flat shapes take part in set algebra as prisms: every face is lifted
// along the plane normal by liftDepth, the volumetric operation runs, and
// the faces left on the base plane are the result.
const liftDepth = 1.0

// canonical orients pl so that its dominant normal component is positive.
// Coplanar surfaces then lift in the same direction whatever their
// winding.
func canonical(pl geom.Plane) geom.Plane {
	if geom.Component(pl.Normal, pl.DominantAxis()) < 0 {
		return pl.Flip()
	}
	return pl
}

// surfacePlane returns the canonical plane shared by every polygon.
func (p *Primitive) surfacePlane() (geom.Plane, bool) {
	if p.lift != nil {
		return *p.lift, true
	}
	var (
		pl    geom.Plane
		found bool
	)
	pts := p.Points()
	eps := 1e3 * p.tolerance()
	for _, pg := range p.Polygons() {
		q, ok := pg.Plane(pts)
		if !ok {
			continue
		}
		q = canonical(q)
		if !found {
			pl, found = q, true
			continue
		}
		if !pl.Coincident(q, 1e-6) {
			return geom.Plane{}, false
		}
	}
	if !found {
		return geom.Plane{}, false
	}
	for _, pt := range pts {
		if math.Abs(pl.Distance(pt)) > eps {
			return geom.Plane{}, false
		}
	}
	return pl, true
}

// coplanar reports whether p and o are surfaces in one plane.
func coplanar(p, o *Primitive) (geom.Plane, bool) {
	a, ok := p.surfacePlane()
	if !ok {
		return geom.Plane{}, false
	}
	b, ok := o.surfacePlane()
	if !ok {
		return geom.Plane{}, false
	}
	return a, a.Coincident(b, 1e-6) || a.Coincident(b.Flip(), 1e-6)
}

func reverse(loop []geom.Point) []geom.Point {
	out := make([]geom.Point, len(loop))
	for i, v := range loop {
		out[len(loop)-1-i] = v
	}
	return out
}

// prism returns the closed faces of loop swept along n by d. The loop is
// first wound counter-clockwise around n.
func prism(loop []geom.Point, n geom.Point, d float64) [][]geom.Point {
	if pl, ok := geom.PlaneOf(loop); ok && geom.Dot(pl.Normal, n) < 0 {
		loop = reverse(loop)
	}
	off := geom.Scale(d, n)
	top := make([]geom.Point, len(loop))
	for i, v := range loop {
		top[i] = geom.Add(v, off)
	}
	faces := [][]geom.Point{reverse(loop), top}
	for i := range loop {
		a, b := loop[i], loop[(i+1)%len(loop)]
		faces = append(faces, []geom.Point{a, b, geom.Add(b, off), geom.Add(a, off)})
	}
	return faces
}

// liftSolid builds the prism solid of every polygon over pl.
func (p *Primitive) liftSolid(pl geom.Plane) (kernel.Solid, error) {
	var solids []kernel.Solid
	for _, loop := range p.loops() {
		if len(loop) < 3 {
			continue
		}
		s, err := kernel.Guard("from_polygons", func() (kernel.Solid, error) {
			return p.k.FromPolygons(prism(loop, pl.Normal, liftDepth))
		})
		if err != nil {
			return nil, err
		}
		solids = append(solids, s)
	}
	return kernel.Guard("union_all", func() (kernel.Solid, error) {
		return p.k.UnionAll(solids)
	})
}

// liftedSolid returns o's solid lifted over pl, reusing o's own when it
// was lifted over the same plane.
func liftedSolid(o *Primitive, pl geom.Plane) (kernel.Solid, error) {
	if o.solid != nil && o.lift != nil && o.lift.Coincident(pl, 1e-9) {
		return o.solid, nil
	}
	c := o.derive(Surface)
	for _, l := range o.loops() {
		c.AppendLoop(l)
	}
	return c.liftSolid(pl)
}

// unlift keeps the faces of a lifted solid lying on pl and facing away
// from its normal, rewound to face along it.
func unlift(faces [][]geom.Point, pl geom.Plane) [][]geom.Point {
	var out [][]geom.Point
	for _, f := range faces {
		fp, ok := geom.PlaneOf(f)
		if !ok || geom.Dot(fp.Normal, pl.Normal) > -1+1e-6 {
			continue
		}
		on := true
		for _, v := range f {
			if math.Abs(pl.Distance(v)) > 1e-6 {
				on = false
				break
			}
		}
		if on {
			out = append(out, reverse(f))
		}
	}
	return out
}
