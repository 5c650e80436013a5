// Package kernel defines the solid kernel capability used by primitives.
// Implementations (bsp, sdfx) provide volumetric set algebra behind this
// interface so the evaluator can swap backends without other changes.
package kernel

import (
	"errors"
	"fmt"

	"github.com/chazu/facet/pkg/geom"
)

// Sentinel errors reported by kernels.
var (
	// ErrKernel marks a failure inside the boolean algebra itself.
	ErrKernel = errors.New("kernel failure")
	// ErrUnsupported marks an operation the backend cannot perform.
	ErrUnsupported = errors.New("unsupported by kernel")
)

// Solid is an opaque handle to a kernel solid. A solid is owned by exactly
// one primitive; kernels never mutate their inputs.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box. Unbounded solids
	// report infinite bounds.
	BoundingBox() (min, max [3]float64)
	// IsEmpty reports whether the solid encloses no volume.
	IsEmpty() bool
}

// Kernel is the solid capability: construction, set algebra, transforms and
// boundary extraction.
type Kernel interface {
	Name() string

	// Construction
	Empty() Solid
	FromPolygons(faces [][]geom.Point) (Solid, error)
	Copy(s Solid) Solid

	// Set algebra
	Union(a, b Solid) (Solid, error)
	UnionAll(solids []Solid) (Solid, error)
	Group(a, b Solid) (Solid, error)
	Intersection(a, b Solid) (Solid, error)
	Difference(a, b Solid) (Solid, error)
	SymmetricDifference(a, b Solid) (Solid, error)
	Complement(s Solid) (Solid, error)
	Minkowski(a, b Solid) (Solid, error)

	// Transforms
	Transform(s Solid, m geom.Transform) (Solid, error)

	// Extraction
	Boundary(s Solid) ([][]geom.Point, error)
	Decompose(s Solid) ([]Solid, error)
}

// Guard runs fn and converts a panic raised inside it into an ErrKernel
// error, so that a numeric failure deep in a backend never escapes as a
// crash.
func Guard[T any](op string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = fmt.Errorf("%s: %w: %v", op, ErrKernel, r)
		}
	}()
	return fn()
}

// BalancedUnion folds solids through k.Union as a balanced binary tree.
// Each level halves the operand count, which keeps intermediate solids
// small compared with a left fold.
func BalancedUnion(k Kernel, solids []Solid) (Solid, error) {
	switch len(solids) {
	case 0:
		return k.Empty(), nil
	case 1:
		return solids[0], nil
	}
	level := solids
	for len(level) > 1 {
		next := make([]Solid, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			u, err := k.Union(level[i], level[i+1])
			if err != nil {
				return nil, err
			}
			next = append(next, u)
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0], nil
}

// Bounds returns the bounding box of s as a geom.BBox.
func Bounds(s Solid) geom.BBox {
	if s == nil || s.IsEmpty() {
		return geom.EmptyBBox()
	}
	return geom.BBoxFromArray(s.BoundingBox())
}
