package planar

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// line is an offset edge: a point on it and its unit direction.
type line struct {
	p, d r2.Vec
}

// Offset moves every loop by amount into the material it bounds:
// counter-clockwise loops shrink and clockwise loops (holes) grow for a
// positive amount, and the reverse for a negative one. Edges that collapse
// are removed and their neighbours meet directly, following the vertex
// events of the straight skeleton; split events are not modelled, so a
// loop that would pinch into two parts is returned as one. Loops that
// vanish are dropped.
func Offset(loops [][]r2.Vec, amount float64) [][]r2.Vec {
	var out [][]r2.Vec
	for _, l := range loops {
		if o := offsetLoop(l, amount); len(o) >= 3 {
			out = append(out, o)
		}
	}
	return out
}

func offsetLoop(loop []r2.Vec, amount float64) []r2.Vec {
	loop = cleanLoop(loop)
	if len(loop) < 3 {
		return nil
	}
	area := SignedArea(loop)
	var lines []line
	for i := range loop {
		a, b := loop[i], loop[(i+1)%len(loop)]
		d := r2.Unit(r2.Sub(b, a))
		left := r2.Vec{X: -d.Y, Y: d.X}
		lines = append(lines, line{p: r2.Add(a, r2.Scale(amount, left)), d: d})
	}

	for len(lines) >= 3 {
		pts := corners(lines)
		collapsed := -1
		for i := range lines {
			e := r2.Sub(pts[(i+1)%len(pts)], pts[i])
			if r2.Dot(e, lines[i].d) < 0 {
				collapsed = i
				break
			}
		}
		if collapsed < 0 {
			if SignedArea(pts)*area <= 0 {
				return nil
			}
			return pts
		}
		lines = append(lines[:collapsed], lines[collapsed+1:]...)
	}
	return nil
}

// corners intersects consecutive lines. Corner i joins line i-1 and line i.
func corners(lines []line) []r2.Vec {
	n := len(lines)
	pts := make([]r2.Vec, n)
	for i := range lines {
		prev, cur := lines[(i+n-1)%n], lines[i]
		den := r2.Cross(prev.d, cur.d)
		if math.Abs(den) < 1e-12 {
			pts[i] = cur.p
			continue
		}
		t := r2.Cross(r2.Sub(cur.p, prev.p), cur.d) / den
		pts[i] = r2.Add(prev.p, r2.Scale(t, prev.d))
	}
	return pts
}

// cleanLoop drops repeated and collinear vertices.
func cleanLoop(loop []r2.Vec) []r2.Vec {
	var out []r2.Vec
	for _, p := range loop {
		if len(out) > 0 && r2.Norm(r2.Sub(out[len(out)-1], p)) < 1e-12 {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && r2.Norm(r2.Sub(out[0], out[len(out)-1])) < 1e-12 {
		out = out[:len(out)-1]
	}
	changed := true
	for changed && len(out) >= 3 {
		changed = false
		for i := range out {
			a, b, c := out[(i+len(out)-1)%len(out)], out[i], out[(i+1)%len(out)]
			if math.Abs(orient(a, b, c)) < 1e-12 {
				out = append(out[:i], out[i+1:]...)
				changed = true
				break
			}
		}
	}
	return out
}
