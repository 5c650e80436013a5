package primitive

import (
	"math"

	"github.com/chazu/facet/pkg/explorer"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/planar"
	"github.com/chazu/facet/pkg/shapes"
)

// LinearExtrude sweeps p by height along axis. A surface becomes the
// prism over it, a polyline a band of quads and a point set segments.
// A volume is summed with the sweep segment, which needs a kernel.
func (p *Primitive) LinearExtrude(height float64, axis geom.Point) (*Primitive, error) {
	if geom.Norm(axis) < geom.Epsilon || height == 0 {
		return nil, p.unsupported("linear_extrude", "zero-length extrusion")
	}
	if p.annotation != "" {
		c, err := p.child().LinearExtrude(height, axis)
		if err != nil {
			return nil, err
		}
		p.setChild(c)
		return p, nil
	}
	v := geom.Scale(height, geom.Unit(axis))
	switch p.kind {
	case Volume:
		seg := FromMesh(p.k, shapes.Polyline([]geom.Point{{}, v}), WithLogger(p.log))
		return p.Minkowski(seg)
	case Surface:
		return p.extrudeSurface(v)
	case Lines:
		var quads [][]geom.Point
		for _, l := range p.loops() {
			for i := 0; i+1 < len(l); i++ {
				a, b := l[i], l[i+1]
				quads = append(quads, []geom.Point{a, b, geom.Add(b, v), geom.Add(a, v)})
			}
		}
		p.setLoops(Surface, quads)
	default:
		var segs [][]geom.Point
		for _, pt := range p.Points() {
			segs = append(segs, []geom.Point{pt, geom.Add(pt, v)})
		}
		p.setLoops(Lines, segs)
	}
	return p, nil
}

// extrudeSurface builds the closed prism swept by the faces of p along
// v: the faces at both ends and a wall quad on every perimeter edge.
func (p *Primitive) extrudeSurface(v geom.Point) (*Primitive, error) {
	var up [][]geom.Point
	for _, l := range p.loops() {
		pl, ok := geom.PlaneOf(l)
		if !ok {
			continue
		}
		switch d := geom.Dot(pl.Normal, v); {
		case d > geom.Epsilon:
			up = append(up, l)
		case d < -geom.Epsilon:
			up = append(up, reverse(l))
		}
	}
	if len(up) == 0 {
		return nil, p.unsupported("linear_extrude", "axis lies in the surface")
	}
	e := explorer.FromFaces(up, explorer.WithLogger(p.log))
	shift := func(l []geom.Point) []geom.Point {
		out := make([]geom.Point, len(l))
		for i, pt := range l {
			out[i] = geom.Add(pt, v)
		}
		return out
	}
	var faces [][]geom.Point
	for _, f := range e.Polygons() {
		faces = append(faces, reverse(f), shift(f))
	}
	for _, l := range e.Loops {
		for i := range l {
			a, b := e.Points[l[i]], e.Points[l[(i+1)%len(l)]]
			faces = append(faces, []geom.Point{a, b, geom.Add(b, v), geom.Add(a, v)})
		}
	}
	p.setLoops(Volume, faces)
	return p, nil
}

// frame returns two unit vectors completing axis to a right-handed basis.
func frame(axis geom.Point) (u, v, w geom.Point) {
	w = geom.Unit(axis)
	ref := geom.Pt(1, 0, 0)
	if math.Abs(w.X) > 0.9 {
		ref = geom.Pt(0, 1, 0)
	}
	u = geom.Unit(geom.Sub(ref, geom.Scale(geom.Dot(ref, w), w)))
	v = geom.Cross(w, u)
	return u, v, w
}

// RotateExtrude revolves a flat profile about axis. A profile point
// (x, y) turns at distance x+radius from the axis and height y along it,
// rising by height over the whole sweep, given in degrees. fragments is
// the number of steps in a full turn. Walls that would cross the axis are
// left out, and the ends are capped unless the sweep closes on itself.
func (p *Primitive) RotateExtrude(height, radius, sweep float64, fragments int, axis geom.Point) (*Primitive, error) {
	if p.annotation != "" {
		c, err := p.child().RotateExtrude(height, radius, sweep, fragments, axis)
		if err != nil {
			return nil, err
		}
		p.setChild(c)
		return p, nil
	}
	switch {
	case p.kind != Surface:
		return nil, p.unsupported("rotate_extrude", "profile is not a flat shape")
	case geom.Norm(axis) < geom.Epsilon:
		return nil, p.unsupported("rotate_extrude", "zero-length axis")
	case sweep == 0:
		return nil, p.unsupported("rotate_extrude", "zero sweep")
	}
	if fragments < 3 {
		fragments = 3
	}
	loops := p.loops()
	if len(loops) == 0 {
		return p, nil
	}
	pl, ok := geom.PlaneOf(loops[0])
	if !ok {
		return nil, p.unsupported("rotate_extrude", "degenerate profile")
	}
	e := explorer.FromFaces(loops, explorer.WithLogger(p.log))

	sweep = math.Max(-360, math.Min(360, sweep))
	steps := int(math.Ceil(float64(fragments) * math.Abs(sweep) / 360))
	if steps < 1 {
		steps = 1
	}
	closed := math.Abs(sweep) == 360 && height == 0
	rings := steps + 1
	if closed {
		rings = steps
	}
	u, v, w := frame(axis)
	n := len(e.Points)
	radial := make([]float64, n)
	for i, pt := range e.Points {
		radial[i] = pt.X + radius
	}
	pts := make([]geom.Point, 0, n*rings)
	for s := 0; s < rings; s++ {
		t := float64(s) / float64(steps)
		a := sweep * t * math.Pi / 180
		for i, pt := range e.Points {
			r := radial[i]
			pos := geom.Add(geom.Scale(r*math.Cos(a), u), geom.Scale(r*math.Sin(a), v))
			pts = append(pts, geom.Add(pos, geom.Scale(pt.Y+height*t, w)))
		}
	}
	at := func(i, s int) int {
		if closed {
			s %= steps
		}
		if height == 0 && radial[i] == 0 {
			s = 0
		}
		return s*n + i
	}

	var faces [][]int
	for _, l := range e.Loops {
		for j := range l {
			a, b := l[j], l[(j+1)%len(l)]
			if radial[a]*radial[b] < 0 {
				continue
			}
			for s := 0; s < steps; s++ {
				if f := squash([]int{at(a, s), at(a, s+1), at(b, s+1), at(b, s)}); len(f) >= 3 {
					faces = append(faces, f)
				}
			}
		}
	}
	if !closed {
		var (
			flat    []int
			profile [][]geom.Point
		)
		for _, l := range e.Loops {
			flat = append(flat, l...)
			ring := make([]geom.Point, len(l))
			for j, i := range l {
				ring[j] = e.Points[i]
			}
			profile = append(profile, ring)
		}
		tris, err := planar.TriangulateLoops(profile, pl)
		if err != nil {
			return nil, p.fail("rotate_extrude", err)
		}
		for _, t := range tris {
			a, b, c := flat[t[0]], flat[t[1]], flat[t[2]]
			faces = append(faces,
				[]int{at(a, 0), at(b, 0), at(c, 0)},
				[]int{at(c, steps), at(b, steps), at(a, steps)})
		}
	}
	if signedVolume(pts, faces) < 0 {
		for i, f := range faces {
			faces[i] = reverseIndices(f)
		}
	}
	p.setMesh(Volume, pts, faces)
	return p, nil
}

// squash drops consecutive repeated indices, as left by vertices on the
// axis.
func squash(f []int) []int {
	out := make([]int, 0, len(f))
	for i, v := range f {
		if v != f[(i+1)%len(f)] {
			out = append(out, v)
		}
	}
	return out
}

func reverseIndices(f []int) []int {
	out := make([]int, len(f))
	for i, v := range f {
		out[len(f)-1-i] = v
	}
	return out
}

// signedVolume integrates faces over the origin; it is negative when the
// faces point inward.
func signedVolume(pts []geom.Point, faces [][]int) float64 {
	var vol float64
	for _, f := range faces {
		for i := 1; i+1 < len(f); i++ {
			vol += geom.Dot(pts[f[0]], geom.Cross(pts[f[i]], pts[f[i+1]]))
		}
	}
	return vol / 6
}
