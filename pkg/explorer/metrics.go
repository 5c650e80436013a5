package explorer

import (
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/planar"
)

// Metrics are the mass properties of a solid.
type Metrics struct {
	Size     float64
	Centroid geom.Point
	Bounds   geom.BBox
}

// Volume decomposes s into pieces and sums the tetrahedra fanned from
// each piece's boundary. The centroid is only computed when calcMass is
// set.
func Volume(k kernel.Kernel, s kernel.Solid, calcMass bool) (Metrics, error) {
	pieces, err := k.Decompose(k.Copy(s))
	if err != nil {
		return Metrics{}, err
	}
	var acc accumulator
	for _, p := range pieces {
		faces, err := k.Boundary(p)
		if err != nil {
			return Metrics{}, err
		}
		acc.add(faces)
	}
	return acc.metrics(kernel.Bounds(s), calcMass), nil
}

// FaceMetrics computes the mass properties of a closed polygon soup.
func FaceMetrics(faces [][]geom.Point, calcMass bool) Metrics {
	var acc accumulator
	acc.add(faces)
	b := geom.EmptyBBox()
	for _, f := range faces {
		b = b.Union(geom.BBoxOf(f))
	}
	return acc.metrics(b, calcMass)
}

type accumulator struct {
	volume float64
	moment geom.Point
}

// add sums signed tetrahedra from the first vertex of faces. The sum is
// exact for any closed consistently oriented surface.
func (a *accumulator) add(faces [][]geom.Point) {
	var o geom.Point
	found := false
	for _, f := range faces {
		if len(f) > 0 {
			o, found = f[0], true
			break
		}
	}
	if !found {
		return
	}
	tet := func(p, q, r geom.Point) {
		v := geom.Dot(geom.Sub(p, o), geom.Cross(geom.Sub(q, o), geom.Sub(r, o))) / 6
		a.volume += v
		c := geom.Scale(0.25, geom.Add(geom.Add(o, p), geom.Add(q, r)))
		a.moment = geom.Add(a.moment, geom.Scale(v, c))
	}
	for _, f := range faces {
		if len(f) < 3 {
			continue
		}
		if len(f) > 3 {
			if tris, ok := planar.TriangulateFace(f); ok {
				for _, t := range tris {
					tet(f[t[0]], f[t[1]], f[t[2]])
				}
				continue
			}
		}
		for i := 1; i+1 < len(f); i++ {
			tet(f[0], f[i], f[i+1])
		}
	}
}

func (a *accumulator) metrics(bounds geom.BBox, calcMass bool) Metrics {
	m := Metrics{Size: math.Abs(a.volume), Bounds: bounds}
	if calcMass && a.volume != 0 {
		m.Centroid = geom.Scale(1/a.volume, a.moment)
	}
	return m
}
