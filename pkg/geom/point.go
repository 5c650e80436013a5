// Package geom holds the value types shared by every layer of the
// evaluator: points, indexed polygons, planes, bounding boxes and affine
// transforms.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the distance below which two coordinates are considered equal.
const Epsilon = 1e-9

// Point is an immutable coordinate triple. Equality is structural.
type Point = r3.Vec

// Pt is shorthand for constructing a Point.
func Pt(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// Add returns a+b.
func Add(a, b Point) Point { return r3.Add(a, b) }

// Sub returns a-b.
func Sub(a, b Point) Point { return r3.Sub(a, b) }

// Scale returns f*p.
func Scale(f float64, p Point) Point { return r3.Scale(f, p) }

// Dot returns the dot product of a and b.
func Dot(a, b Point) float64 { return r3.Dot(a, b) }

// Cross returns the cross product of a and b.
func Cross(a, b Point) Point { return r3.Cross(a, b) }

// Norm returns the Euclidean length of p.
func Norm(p Point) float64 { return r3.Norm(p) }

// Unit returns p scaled to unit length. The zero vector is returned unchanged.
func Unit(p Point) Point {
	if r3.Norm2(p) == 0 {
		return p
	}
	return r3.Unit(p)
}

// Distance returns the distance between a and b.
func Distance(a, b Point) float64 { return r3.Norm(r3.Sub(a, b)) }

// Lerp interpolates between a and b.
func Lerp(a, b Point, t float64) Point {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Near reports whether a and b are within eps of each other.
func Near(a, b Point, eps float64) bool {
	return r3.Norm2(r3.Sub(a, b)) <= eps*eps
}

// Collinear reports whether a, b and c lie on one line.
func Collinear(a, b, c Point, eps float64) bool {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	scale := math.Max(r3.Norm(ab), r3.Norm(ac))
	if scale == 0 {
		return true
	}
	return r3.Norm(r3.Cross(ab, ac)) <= eps*scale
}

// Component returns coordinate i (0=X, 1=Y, 2=Z) of p.
func Component(p Point, i int) float64 {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// WithComponent returns p with coordinate i replaced by v.
func WithComponent(p Point, i int, v float64) Point {
	switch i {
	case 0:
		p.X = v
	case 1:
		p.Y = v
	default:
		p.Z = v
	}
	return p
}

// Centroid returns the arithmetic mean of pts.
func Centroid(pts []Point) Point {
	var c Point
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(pts)), c)
}
