package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/shapes"
)

func box(t *testing.T, k *Kernel, min, max geom.Point) kernel.Solid {
	t.Helper()
	s, err := k.FromPolygons(shapes.Box(geom.BBox{Min: min, Max: max}).Loops())
	if err != nil {
		t.Fatalf("FromPolygons failed: %v", err)
	}
	return s
}

func eval(s kernel.Solid, p geom.Point) float64 {
	return s.(*solid).f.Evaluate(toV3(p))
}

func TestFromPolygonsSign(t *testing.T) {
	k := New(0)
	loops := shapes.Cube(geom.Pt(2, 2, 2), false).Loops()
	flipped := shapes.Cube(geom.Pt(2, 2, 2), false).Loops()
	for _, l := range flipped {
		for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
			l[i], l[j] = l[j], l[i]
		}
	}
	for name, faces := range map[string][][]geom.Point{"outward": loops, "inward": flipped} {
		s, err := k.FromPolygons(faces)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if d := eval(s, geom.Pt(1, 1, 1)); math.Abs(d+1) > 1e-9 {
			t.Errorf("%s: centre distance = %v, want -1", name, d)
		}
		if d := eval(s, geom.Pt(3, 1, 1)); math.Abs(d-1) > 1e-9 {
			t.Errorf("%s: outside distance = %v, want 1", name, d)
		}
	}
}

func TestEmpty(t *testing.T) {
	k := New(0)
	s, err := k.FromPolygons(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsEmpty() {
		t.Fatal("expected empty solid")
	}
	faces, err := k.Boundary(s)
	if err != nil || len(faces) != 0 {
		t.Fatalf("Boundary(empty) = %d faces, %v", len(faces), err)
	}
}

func TestBooleans(t *testing.T) {
	k := New(0)
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(2, 2, 2))
	b := box(t, k, geom.Pt(1, 1, 1), geom.Pt(3, 3, 3))

	u, _ := k.Union(a, b)
	i, _ := k.Intersection(a, b)
	d, _ := k.Difference(a, b)
	x, _ := k.SymmetricDifference(a, b)

	tests := []struct {
		name string
		s    kernel.Solid
		p    geom.Point
		in   bool
	}{
		{"union a", u, geom.Pt(0.5, 0.5, 0.5), true},
		{"union b", u, geom.Pt(2.5, 2.5, 2.5), true},
		{"union outside", u, geom.Pt(2.5, 0.5, 0.5), false},
		{"intersection shared", i, geom.Pt(1.5, 1.5, 1.5), true},
		{"intersection a only", i, geom.Pt(0.5, 0.5, 0.5), false},
		{"difference a only", d, geom.Pt(0.5, 0.5, 0.5), true},
		{"difference shared", d, geom.Pt(1.5, 1.5, 1.5), false},
		{"xor shared", x, geom.Pt(1.5, 1.5, 1.5), false},
		{"xor b only", x, geom.Pt(2.5, 2.5, 2.5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval(tt.s, tt.p) < 0; got != tt.in {
				t.Fatalf("inside = %v, want %v", got, tt.in)
			}
		})
	}

	min, max := i.BoundingBox()
	if min != [3]float64{1, 1, 1} || max != [3]float64{2, 2, 2} {
		t.Errorf("intersection bounds = %v %v", min, max)
	}
	min, max = u.BoundingBox()
	if min != [3]float64{0, 0, 0} || max != [3]float64{3, 3, 3} {
		t.Errorf("union bounds = %v %v", min, max)
	}
}

func TestDisjointIntersectionIsEmpty(t *testing.T) {
	k := New(0)
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	b := box(t, k, geom.Pt(5, 5, 5), geom.Pt(6, 6, 6))
	i, err := k.Intersection(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !i.IsEmpty() {
		t.Fatal("expected empty intersection")
	}
}

func TestUnionAll(t *testing.T) {
	k := New(0)
	var solids []kernel.Solid
	for i := 0; i < 4; i++ {
		x := float64(3 * i)
		solids = append(solids, box(t, k, geom.Pt(x, 0, 0), geom.Pt(x+1, 1, 1)))
	}
	solids = append(solids, k.Empty())
	u, err := k.UnionAll(solids)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if eval(u, geom.Pt(float64(3*i)+0.5, 0.5, 0.5)) >= 0 {
			t.Errorf("box %d missing from union", i)
		}
	}
	if _, max := u.BoundingBox(); max[0] != 10 {
		t.Errorf("max x = %v, want 10", max[0])
	}
}

func TestComplement(t *testing.T) {
	k := New(0)
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	c, err := k.Complement(a)
	if err != nil {
		t.Fatal(err)
	}
	if eval(c, geom.Pt(0.5, 0.5, 0.5)) <= 0 || eval(c, geom.Pt(5, 5, 5)) >= 0 {
		t.Fatal("complement did not swap inside and outside")
	}
	if _, err := k.Boundary(c); !errors.Is(err, kernel.ErrUnsupported) {
		t.Fatalf("Boundary(complement) error = %v", err)
	}
	back, err := k.Complement(c)
	if err != nil {
		t.Fatal(err)
	}
	min, max := back.BoundingBox()
	if min != [3]float64{0, 0, 0} || max != [3]float64{1, 1, 1} {
		t.Errorf("double complement bounds = %v %v", min, max)
	}

	// Cutting a complement away keeps the overlap.
	b := box(t, k, geom.Pt(0.5, 0, 0), geom.Pt(2, 1, 1))
	d, _ := k.Difference(b, c)
	if eval(d, geom.Pt(0.75, 0.5, 0.5)) >= 0 || eval(d, geom.Pt(1.5, 0.5, 0.5)) <= 0 {
		t.Fatal("difference with complement is not an intersection")
	}
}

func TestTransform(t *testing.T) {
	k := New(0)
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	m := geom.Translation(geom.Pt(10, 0, 0)).Mul(geom.Scaling(geom.Pt(2, 2, 2)))
	s, err := k.Transform(a, m)
	if err != nil {
		t.Fatal(err)
	}
	if eval(s, geom.Pt(11.5, 1.5, 1.5)) >= 0 {
		t.Error("scaled interior point is outside")
	}
	if d := eval(s, geom.Pt(14, 1, 1)); math.Abs(d-2) > 1e-9 {
		t.Errorf("distance = %v, want 2", d)
	}
	min, max := s.BoundingBox()
	if min != [3]float64{10, 0, 0} || max != [3]float64{12, 2, 2} {
		t.Errorf("bounds = %v %v", min, max)
	}

	if _, err := k.Transform(a, geom.Scaling(geom.Pt(1, 0, 1))); !errors.Is(err, kernel.ErrKernel) {
		t.Fatalf("singular transform error = %v", err)
	}
}

func TestBoundary(t *testing.T) {
	k := New(32)
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(2, 2, 2))
	faces, err := k.Boundary(a)
	if err != nil {
		t.Fatalf("Boundary failed: %v", err)
	}
	if len(faces) == 0 {
		t.Fatal("no faces")
	}
	v := 0.0
	for _, f := range faces {
		if len(f) != 3 {
			t.Fatalf("face with %d vertices", len(f))
		}
		v += geom.Dot(f[0], geom.Cross(f[1], f[2])) / 6
		for _, p := range f {
			if p.X < -0.2 || p.X > 2.2 || p.Y < -0.2 || p.Y > 2.2 || p.Z < -0.2 || p.Z > 2.2 {
				t.Fatalf("vertex %v outside padded bounds", p)
			}
		}
	}
	if math.Abs(math.Abs(v)-8) > 0.5 {
		t.Errorf("meshed volume = %v, want about 8", v)
	}
}

func TestUnsupported(t *testing.T) {
	k := New(0)
	a := box(t, k, geom.Pt(0, 0, 0), geom.Pt(1, 1, 1))
	if _, err := k.Minkowski(a, a); !errors.Is(err, kernel.ErrUnsupported) {
		t.Fatalf("Minkowski error = %v", err)
	}
	if _, err := k.Decompose(a); !errors.Is(err, kernel.ErrUnsupported) {
		t.Fatalf("Decompose error = %v", err)
	}
	if pieces, err := k.Decompose(k.Empty()); err != nil || len(pieces) != 0 {
		t.Fatalf("Decompose(empty) = %d pieces, %v", len(pieces), err)
	}
}
