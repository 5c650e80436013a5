package geom

import "math"

// Plane is the set of points p with Dot(Normal, p) == W. Normal is unit
// length for planes built by this package.
type Plane struct {
	Normal Point
	W      float64
}

// NewellNormal returns the (unnormalised) area-weighted normal of the loop
// pts. Its length is twice the loop's area.
func NewellNormal(pts []Point) Point {
	var n Point
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// PlaneOf fits a plane to the loop pts. It reports false when the loop is
// degenerate (collinear or fewer than three points).
func PlaneOf(pts []Point) (Plane, bool) {
	if len(pts) < 3 {
		return Plane{}, false
	}
	n := NewellNormal(pts)
	l := Norm(n)
	if l < Epsilon {
		return Plane{}, false
	}
	n = Scale(1/l, n)
	return Plane{Normal: n, W: Dot(n, Centroid(pts))}, true
}

// PlaneFromPoints builds the plane through a, b and c.
func PlaneFromPoints(a, b, c Point) (Plane, bool) {
	n := Cross(Sub(b, a), Sub(c, a))
	l := Norm(n)
	if l < Epsilon {
		return Plane{}, false
	}
	n = Scale(1/l, n)
	return Plane{Normal: n, W: Dot(n, a)}, true
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p Point) float64 {
	return Dot(pl.Normal, p) - pl.W
}

// Flip returns the plane with its orientation reversed.
func (pl Plane) Flip() Plane {
	return Plane{Normal: Scale(-1, pl.Normal), W: -pl.W}
}

// Coincident reports whether pl and o describe the same oriented plane.
func (pl Plane) Coincident(o Plane, eps float64) bool {
	return Dot(pl.Normal, o.Normal) > 1-eps && math.Abs(pl.W-o.W) <= eps
}

// DominantAxis returns the axis with the largest absolute normal component.
// Dropping that axis gives the projection with the least distortion.
func (pl Plane) DominantAxis() int {
	return DominantAxis(pl.Normal)
}

// DominantAxis returns the index of the largest absolute component of n.
func DominantAxis(n Point) int {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case ax >= ay && ax >= az:
		return 0
	case ay >= az:
		return 1
	default:
		return 2
	}
}

// Projection maps points of a plane to 2-D by dropping the dominant axis of
// its normal. The remaining two axes are ordered so that a loop which is
// counter-clockwise around the normal stays counter-clockwise in 2-D.
type Projection struct {
	Plane Plane
	Drop  int
	U, V  int
}

// NewProjection returns the projection for pl.
func NewProjection(pl Plane) Projection {
	drop := pl.DominantAxis()
	u, v := (drop+1)%3, (drop+2)%3
	if Component(pl.Normal, drop) < 0 {
		u, v = v, u
	}
	return Projection{Plane: pl, Drop: drop, U: u, V: v}
}

// Project returns the 2-D coordinates of p.
func (pr Projection) Project(p Point) (float64, float64) {
	return Component(p, pr.U), Component(p, pr.V)
}

// Lift maps 2-D coordinates back onto the plane.
func (pr Projection) Lift(u, v float64) Point {
	var p Point
	p = WithComponent(p, pr.U, u)
	p = WithComponent(p, pr.V, v)
	n := pr.Plane.Normal
	d := Component(n, pr.Drop)
	rest := pr.Plane.W - Component(n, pr.U)*u - Component(n, pr.V)*v
	return WithComponent(p, pr.Drop, rest/d)
}
