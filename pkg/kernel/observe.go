package kernel

import (
	"time"

	"github.com/chazu/facet/pkg/geom"
)

// Observer receives one call per kernel operation.
type Observer interface {
	ObserveKernelOp(kernel, op string, d time.Duration, err error)
}

// Observed wraps k so that every operation is reported to obs.
func Observed(k Kernel, obs Observer) Kernel {
	if obs == nil {
		return k
	}
	return &observed{k: k, obs: obs}
}

// Compile-time interface check.
var _ Kernel = (*observed)(nil)

type observed struct {
	k   Kernel
	obs Observer
}

func (o *observed) track(op string, start time.Time, err error) {
	o.obs.ObserveKernelOp(o.k.Name(), op, time.Since(start), err)
}

func (o *observed) solid(op string, fn func() (Solid, error)) (Solid, error) {
	start := time.Now()
	s, err := fn()
	o.track(op, start, err)
	return s, err
}

func (o *observed) Name() string { return o.k.Name() }

func (o *observed) Empty() Solid { return o.k.Empty() }

func (o *observed) Copy(s Solid) Solid { return o.k.Copy(s) }

func (o *observed) FromPolygons(faces [][]geom.Point) (Solid, error) {
	return o.solid("from_polygons", func() (Solid, error) { return o.k.FromPolygons(faces) })
}

func (o *observed) Union(a, b Solid) (Solid, error) {
	return o.solid("union", func() (Solid, error) { return o.k.Union(a, b) })
}

func (o *observed) UnionAll(solids []Solid) (Solid, error) {
	return o.solid("union_all", func() (Solid, error) { return o.k.UnionAll(solids) })
}

func (o *observed) Group(a, b Solid) (Solid, error) {
	return o.solid("group", func() (Solid, error) { return o.k.Group(a, b) })
}

func (o *observed) Intersection(a, b Solid) (Solid, error) {
	return o.solid("intersection", func() (Solid, error) { return o.k.Intersection(a, b) })
}

func (o *observed) Difference(a, b Solid) (Solid, error) {
	return o.solid("difference", func() (Solid, error) { return o.k.Difference(a, b) })
}

func (o *observed) SymmetricDifference(a, b Solid) (Solid, error) {
	return o.solid("symmetric_difference", func() (Solid, error) { return o.k.SymmetricDifference(a, b) })
}

func (o *observed) Complement(s Solid) (Solid, error) {
	return o.solid("complement", func() (Solid, error) { return o.k.Complement(s) })
}

func (o *observed) Minkowski(a, b Solid) (Solid, error) {
	return o.solid("minkowski", func() (Solid, error) { return o.k.Minkowski(a, b) })
}

func (o *observed) Transform(s Solid, m geom.Transform) (Solid, error) {
	return o.solid("transform", func() (Solid, error) { return o.k.Transform(s, m) })
}

func (o *observed) Boundary(s Solid) ([][]geom.Point, error) {
	start := time.Now()
	b, err := o.k.Boundary(s)
	o.track("boundary", start, err)
	return b, err
}

func (o *observed) Decompose(s Solid) ([]Solid, error) {
	start := time.Now()
	parts, err := o.k.Decompose(s)
	o.track("decompose", start, err)
	return parts, err
}
