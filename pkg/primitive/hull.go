package primitive

import (
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/hull"
)

// hullPoints gathers the points of p and of its direct children.
func (p *Primitive) hullPoints() []geom.Point {
	pts := append([]geom.Point(nil), p.Points()...)
	for _, c := range p.children {
		pts = append(pts, c.Points()...)
	}
	return pts
}

func hullKind(k hull.Kind) geom.Kind {
	switch k {
	case hull.Points:
		return Points
	case hull.Lines:
		return Lines
	case hull.Surface:
		return Surface
	default:
		return Volume
	}
}

// fromHull converts a hull result into a Primitive of matching kind.
func (p *Primitive) fromHull(r hull.Result) *Primitive {
	kind := hullKind(r.Kind)
	out := p.derive(kind)
	out.setMesh(kind, r.Points, r.Faces)
	out.sanitized = r.Kind == hull.Volume
	return out
}

// Hull returns the convex hull of the points of p and its children, or
// with concave set their alpha shape at the optimal alpha. Degenerate
// inputs give a point, a segment or a flat polygon.
func (p *Primitive) Hull(concave bool) (*Primitive, error) {
	pts := p.hullPoints()
	var r hull.Result
	if concave {
		r = hull.Concave(pts)
	} else {
		r = hull.Convex(pts)
	}
	out := p.fromHull(r)
	out.AppendChild(p)
	p.log.Debug().Bool("concave", concave).Stringer("kind", r.Kind).Int("points", len(pts)).Msg("hull")
	return out, nil
}

// ChainHull hulls the points of prev and next alone and queues the result
// on p for the n-ary union of the next Combine.
func (p *Primitive) ChainHull(prev, next *Primitive) {
	pts := append(append([]geom.Point(nil), prev.Points()...), next.Points()...)
	h := p.fromHull(hull.Convex(pts))
	h.AppendChild(prev)
	h.AppendChild(next)
	p.JoinLater(h)
}
