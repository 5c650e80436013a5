//go:build manifold

package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/hull"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/planar"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*Kernel)(nil)
var _ kernel.Solid = (*solid)(nil)

// solid wraps a C ManifoldManifold pointer.
type solid struct {
	ptr *C.ManifoldManifold
}

// newSolid wraps ptr with a finalizer that releases the C side.
func newSolid(ptr *C.ManifoldManifold) *solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *solid) BoundingBox() (min, max [3]float64) {
	if s.IsEmpty() {
		return min, max
	}
	bbox := C.manifold_bounding_box(C.manifold_alloc_box(), s.ptr)
	defer C.manifold_delete_box(bbox)

	min[0] = float64(C.manifold_box_min_x(bbox))
	min[1] = float64(C.manifold_box_min_y(bbox))
	min[2] = float64(C.manifold_box_min_z(bbox))
	max[0] = float64(C.manifold_box_max_x(bbox))
	max[1] = float64(C.manifold_box_max_y(bbox))
	max[2] = float64(C.manifold_box_max_z(bbox))
	return min, max
}

// IsEmpty reports whether the solid has no triangles.
func (s *solid) IsEmpty() bool {
	return C.manifold_is_empty(s.ptr) != 0
}

// Volume returns the enclosed volume of a manifold solid.
func Volume(s kernel.Solid) float64 {
	return float64(C.manifold_volume(unwrap(s).ptr))
}

// Kernel implements kernel.Kernel on libmanifoldc.
type Kernel struct{}

// New returns a Manifold kernel.
func New() (kernel.Kernel, error) {
	return &Kernel{}, nil
}

func unwrap(s kernel.Solid) *solid {
	if s == nil {
		return newSolid(C.manifold_empty(C.manifold_alloc_manifold()))
	}
	return s.(*solid)
}

func checked(op string, ptr *C.ManifoldManifold) (kernel.Solid, error) {
	s := newSolid(ptr)
	if st := C.manifold_status(ptr); st != C.MANIFOLD_NO_ERROR {
		return nil, fmt.Errorf("manifold: %s: %w: %w %d", op, kernel.ErrKernel, errStatus, int(st))
	}
	return s, nil
}

// Name returns "manifold".
func (k *Kernel) Name() string { return "manifold" }

// Empty returns a solid enclosing nothing.
func (k *Kernel) Empty() kernel.Solid {
	return newSolid(C.manifold_empty(C.manifold_alloc_manifold()))
}

// FromPolygons builds a solid from closed boundary loops. Each loop is
// triangulated and coincident corners are welded into shared vertices,
// since Manifold rejects meshes whose triangles do not share edges.
func (k *Kernel) FromPolygons(faces [][]geom.Point) (kernel.Solid, error) {
	index := make(map[geom.Point]uint32)
	var props []float32
	var tris []uint32
	weld := func(p geom.Point) uint32 {
		if i, ok := index[p]; ok {
			return i
		}
		i := uint32(len(index))
		index[p] = i
		props = append(props, float32(p.X), float32(p.Y), float32(p.Z))
		return i
	}
	for _, f := range faces {
		if len(f) < 3 {
			continue
		}
		ts, ok := planar.TriangulateFace(f)
		if !ok {
			continue
		}
		for _, t := range ts {
			a, b, c := weld(f[t[0]]), weld(f[t[1]]), weld(f[t[2]])
			if a == b || b == c || a == c {
				continue
			}
			tris = append(tris, a, b, c)
		}
	}
	if len(tris) == 0 {
		return k.Empty(), nil
	}

	mesh := C.manifold_meshgl(C.manifold_alloc_meshgl(),
		(*C.float)(unsafe.Pointer(&props[0])), C.size_t(len(props)/3), C.size_t(3),
		(*C.uint32_t)(unsafe.Pointer(&tris[0])), C.size_t(len(tris)/3),
	)
	defer C.manifold_delete_meshgl(mesh)
	return checked("from polygons", C.manifold_of_meshgl(C.manifold_alloc_manifold(), mesh))
}

// Copy returns an independent copy of s.
func (k *Kernel) Copy(s kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_copy(C.manifold_alloc_manifold(), unwrap(s).ptr))
}

// Union returns the boolean union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	return checked("union", C.manifold_union(C.manifold_alloc_manifold(), unwrap(a).ptr, unwrap(b).ptr))
}

// UnionAll unions every solid in one batch boolean.
func (k *Kernel) UnionAll(solids []kernel.Solid) (kernel.Solid, error) {
	switch len(solids) {
	case 0:
		return k.Empty(), nil
	case 1:
		return k.Copy(solids[0]), nil
	}
	vec := C.manifold_manifold_empty_vec(C.manifold_alloc_manifold_vec())
	defer C.manifold_delete_manifold_vec(vec)
	for _, s := range solids {
		C.manifold_manifold_vec_push_back(vec, unwrap(s).ptr)
	}
	out, err := checked("union all", C.manifold_batch_boolean(C.manifold_alloc_manifold(), vec, C.MANIFOLD_ADD))
	runtime.KeepAlive(solids)
	return out, err
}

// Group unions a and b. Manifold needs no special case for disjoint
// operands.
func (k *Kernel) Group(a, b kernel.Solid) (kernel.Solid, error) {
	return k.Union(a, b)
}

// Intersection returns the boolean intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	return checked("intersection", C.manifold_intersection(C.manifold_alloc_manifold(), unwrap(a).ptr, unwrap(b).ptr))
}

// Difference returns a minus b.
func (k *Kernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return checked("difference", C.manifold_difference(C.manifold_alloc_manifold(), unwrap(a).ptr, unwrap(b).ptr))
}

// SymmetricDifference returns (a - b) + (b - a).
func (k *Kernel) SymmetricDifference(a, b kernel.Solid) (kernel.Solid, error) {
	ab, err := k.Difference(a, b)
	if err != nil {
		return nil, err
	}
	ba, err := k.Difference(b, a)
	if err != nil {
		return nil, err
	}
	return k.Union(ab, ba)
}

// Complement is not representable: Manifold solids are always bounded.
func (k *Kernel) Complement(kernel.Solid) (kernel.Solid, error) {
	return nil, fmt.Errorf("manifold: complement: %w: solids are bounded", kernel.ErrUnsupported)
}

// Minkowski returns the union, over every pair of convex pieces, of the
// hull of their pairwise vertex sums.
func (k *Kernel) Minkowski(a, b kernel.Solid) (kernel.Solid, error) {
	if unwrap(a).IsEmpty() || unwrap(b).IsEmpty() {
		return k.Empty(), nil
	}
	pa, err := k.Decompose(a)
	if err != nil {
		return nil, err
	}
	pb, err := k.Decompose(b)
	if err != nil {
		return nil, err
	}
	var sums []kernel.Solid
	for _, x := range pa {
		vx := vertices(x.(*solid))
		for _, y := range pb {
			vy := vertices(y.(*solid))
			pts := make([]geom.Point, 0, len(vx)*len(vy))
			for _, p := range vx {
				for _, q := range vy {
					pts = append(pts, geom.Add(p, q))
				}
			}
			h := hull.Convex(pts)
			if h.Kind != hull.Volume {
				continue
			}
			s, err := k.FromPolygons(h.Loops())
			if err != nil {
				return nil, err
			}
			sums = append(sums, s)
		}
	}
	return k.UnionAll(sums)
}

// Transform applies the affine part of m. Manifold takes the 3x4 matrix
// column by column with the translation last.
func (k *Kernel) Transform(s kernel.Solid, m geom.Transform) (kernel.Solid, error) {
	src := unwrap(s)
	return checked("transform", C.manifold_transform(C.manifold_alloc_manifold(), src.ptr,
		C.double(m[0][0]), C.double(m[1][0]), C.double(m[2][0]),
		C.double(m[0][1]), C.double(m[1][1]), C.double(m[2][1]),
		C.double(m[0][2]), C.double(m[1][2]), C.double(m[2][2]),
		C.double(m[0][3]), C.double(m[1][3]), C.double(m[2][3]),
	))
}

// Boundary returns the solid's triangles, wound counter-clockwise seen
// from outside.
func (k *Kernel) Boundary(s kernel.Solid) ([][]geom.Point, error) {
	pts, tris := triangles(unwrap(s))
	out := make([][]geom.Point, len(tris))
	for i, t := range tris {
		out[i] = []geom.Point{pts[t[0]], pts[t[1]], pts[t[2]]}
	}
	return out, nil
}

// Decompose splits s into its connected components. A component that is
// not convex cannot be split further and is reported as unsupported.
func (k *Kernel) Decompose(s kernel.Solid) ([]kernel.Solid, error) {
	src := unwrap(s)
	if src.IsEmpty() {
		return nil, nil
	}
	vec := C.manifold_decompose(C.manifold_alloc_manifold_vec(), src.ptr)
	defer C.manifold_delete_manifold_vec(vec)

	n := int(C.manifold_manifold_vec_length(vec))
	out := make([]kernel.Solid, 0, n)
	for i := 0; i < n; i++ {
		part := newSolid(C.manifold_manifold_vec_get(C.manifold_alloc_manifold(), vec, C.size_t(i)))
		h := newSolid(C.manifold_hull(C.manifold_alloc_manifold(), part.ptr))
		v, hv := Volume(part), Volume(h)
		if hv-v > 1e-6*math.Max(1, hv) {
			return nil, fmt.Errorf("manifold: decompose: %w: component %d is not convex", kernel.ErrUnsupported, i)
		}
		out = append(out, part)
	}
	return out, nil
}

// triangles reads the solid's MeshGL. Only the first three properties of
// each vertex are positions.
func triangles(s *solid) ([]geom.Point, [][3]int) {
	mesh := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), s.ptr)
	defer C.manifold_delete_meshgl(mesh)

	numVert := int(C.manifold_meshgl_num_vert(mesh))
	numTri := int(C.manifold_meshgl_num_tri(mesh))
	if numVert == 0 || numTri == 0 {
		return nil, nil
	}
	numProp := int(C.manifold_meshgl_num_prop(mesh))

	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), mesh)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), mesh)

	pts := make([]geom.Point, numVert)
	for i := range pts {
		b := i * numProp
		pts[i] = geom.Pt(float64(props[b]), float64(props[b+1]), float64(props[b+2]))
	}
	tris := make([][3]int, numTri)
	for i := range tris {
		tris[i] = [3]int{int(indices[i*3]), int(indices[i*3+1]), int(indices[i*3+2])}
	}
	return pts, tris
}

func vertices(s *solid) []geom.Point {
	pts, _ := triangles(s)
	return pts
}
