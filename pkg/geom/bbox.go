package geom

import "math"

// BBox is an axis-aligned bounding box. The zero value is not empty; use
// EmptyBBox to start an accumulation.
type BBox struct {
	Min, Max Point
}

// EmptyBBox returns a box that contains nothing and grows with Extend.
func EmptyBBox() BBox {
	inf := math.Inf(1)
	return BBox{Min: Pt(inf, inf, inf), Max: Pt(-inf, -inf, -inf)}
}

// BBoxOf returns the bounds of pts.
func BBoxOf(pts []Point) BBox {
	b := EmptyBBox()
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// IsEmpty reports whether the box contains no point.
func (b BBox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// IsBounded reports whether every bound is finite.
func (b BBox) IsBounded() bool {
	for _, v := range []float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Extend returns the box grown to contain p.
func (b BBox) Extend(p Point) BBox {
	return BBox{
		Min: Pt(math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)),
		Max: Pt(math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)),
	}
}

// Union returns the smallest box containing b and o.
func (b BBox) Union(o BBox) BBox {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Intersect returns the box common to b and o. The result is empty when
// they do not overlap.
func (b BBox) Intersect(o BBox) BBox {
	return BBox{
		Min: Pt(math.Max(b.Min.X, o.Min.X), math.Max(b.Min.Y, o.Min.Y), math.Max(b.Min.Z, o.Min.Z)),
		Max: Pt(math.Min(b.Max.X, o.Max.X), math.Min(b.Max.Y, o.Max.Y), math.Min(b.Max.Z, o.Max.Z)),
	}
}

// Overlaps reports whether b and o share at least one point. Boxes that
// only touch on a face overlap.
func (b BBox) Overlaps(o BBox) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Size returns the extent along each axis.
func (b BBox) Size() Point {
	if b.IsEmpty() {
		return Point{}
	}
	return Sub(b.Max, b.Min)
}

// Center returns the midpoint of the box.
func (b BBox) Center() Point {
	return Scale(0.5, Add(b.Min, b.Max))
}

// Pad returns the box grown by d on every side.
func (b BBox) Pad(d float64) BBox {
	off := Pt(d, d, d)
	return BBox{Min: Sub(b.Min, off), Max: Add(b.Max, off)}
}

// Corners returns the eight corners of the box.
func (b BBox) Corners() [8]Point {
	var c [8]Point
	for i := 0; i < 8; i++ {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		c[i] = p
	}
	return c
}

// Array returns the box as the min/max arrays used by kernel solids.
func (b BBox) Array() (min, max [3]float64) {
	return [3]float64{b.Min.X, b.Min.Y, b.Min.Z}, [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
}

// BBoxFromArray is the inverse of Array.
func BBoxFromArray(min, max [3]float64) BBox {
	return BBox{Min: Pt(min[0], min[1], min[2]), Max: Pt(max[0], max[1], max[2])}
}
