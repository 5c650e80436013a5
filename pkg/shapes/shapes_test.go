package shapes

import (
	"math"
	"testing"

	"github.com/chazu/facet/pkg/geom"
)

// signedVolume sums the tetrahedra fanned from the origin.
func signedVolume(m geom.IndexedMesh) float64 {
	var v float64
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f); i++ {
			a, b, c := m.Points[f[0]], m.Points[f[i]], m.Points[f[i+1]]
			v += geom.Dot(a, geom.Cross(b, c)) / 6
		}
	}
	return v
}

func TestSolidsAreClosedAndOutward(t *testing.T) {
	tests := []struct {
		name string
		mesh geom.IndexedMesh
		want float64 // expected volume, 0 to skip
	}{
		{"box", Box(geom.BBox{Min: geom.Pt(-1, 0, 2), Max: geom.Pt(3, 2, 5)}), 24},
		{"centered cube", Cube(geom.Pt(2, 2, 2), true), 8},
		{"sphere even", Sphere(1, 8), 0},
		{"sphere odd", Sphere(1, 7), 0},
		{"cylinder", Cylinder(2, 1, 1, 4, false), 4},
		{"cone", Cylinder(3, 1, 0, 4, true), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := map[[2]int]int{}
			for _, f := range tt.mesh.Faces {
				for i := range f {
					edges[[2]int{f[i], f[(i+1)%len(f)]}]++
				}
			}
			for e, n := range edges {
				if n != 1 {
					t.Fatalf("edge %v used %d times", e, n)
				}
				if edges[[2]int{e[1], e[0]}] != 1 {
					t.Fatalf("edge %v has no twin", e)
				}
			}
			v := signedVolume(tt.mesh)
			if v <= 0 {
				t.Fatalf("volume = %g, want positive", v)
			}
			if tt.want != 0 && math.Abs(v-tt.want) > 1e-9 {
				t.Errorf("volume = %g, want %g", v, tt.want)
			}
		})
	}
}

func TestFlatShapes(t *testing.T) {
	sq := Square(2, 3, true)
	if sq.Kind != geom.Surface || len(sq.Faces) != 1 || len(sq.Faces[0]) != 4 {
		t.Fatalf("square = %+v", sq)
	}
	if got := geom.BBoxOf(sq.Points); got.Min != geom.Pt(-1, -1.5, 0) {
		t.Errorf("square min = %v", got.Min)
	}

	c := Circle(1, 2)
	if len(c.Points) != 3 {
		t.Errorf("circle with 2 fragments has %d points, want 3", len(c.Points))
	}

	pl := Polyline([]geom.Point{geom.Pt(0, 0, 0), geom.Pt(1, 0, 0), geom.Pt(1, 1, 0)})
	if pl.Kind != geom.Lines || len(pl.Faces) != 1 || len(pl.Faces[0]) != 3 {
		t.Errorf("polyline = %+v", pl)
	}

	ps := PointSet([]geom.Point{geom.Pt(0, 0, 0), geom.Pt(1, 2, 3)})
	if ps.Kind != geom.Points || len(ps.Faces) != 2 {
		t.Errorf("point set = %+v", ps)
	}
}
