package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform is a row-major 4x4 affine matrix acting on column vectors.
type Transform [4][4]float64

// ErrSingular is returned when a transform has no inverse.
var ErrSingular = errors.New("geom: singular transform")

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}

// Translation returns a translation by v.
func Translation(v Point) Transform {
	t := Identity()
	t[0][3], t[1][3], t[2][3] = v.X, v.Y, v.Z
	return t
}

// Scaling returns a per-axis scale about the origin.
func Scaling(s Point) Transform {
	t := Identity()
	t[0][0], t[1][1], t[2][2] = s.X, s.Y, s.Z
	return t
}

// Rotation returns a rotation by Euler angles in degrees, applied X then
// Y then Z.
func Rotation(x, y, z float64) Transform {
	rx, ry, rz := x*math.Pi/180, y*math.Pi/180, z*math.Pi/180
	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)
	mx := Transform{{1, 0, 0, 0}, {0, cx, -sx, 0}, {0, sx, cx, 0}, {0, 0, 0, 1}}
	my := Transform{{cy, 0, sy, 0}, {0, 1, 0, 0}, {-sy, 0, cy, 0}, {0, 0, 0, 1}}
	mz := Transform{{cz, -sz, 0, 0}, {sz, cz, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	return mz.Mul(my).Mul(mx)
}

// Mul returns t*o, which applies o first.
func (t Transform) Mul(o Transform) Transform {
	var r Transform
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				r[i][j] += t[i][k] * o[k][j]
			}
		}
	}
	return r
}

// Apply transforms p.
func (t Transform) Apply(p Point) Point {
	x := t[0][0]*p.X + t[0][1]*p.Y + t[0][2]*p.Z + t[0][3]
	y := t[1][0]*p.X + t[1][1]*p.Y + t[1][2]*p.Z + t[1][3]
	z := t[2][0]*p.X + t[2][1]*p.Y + t[2][2]*p.Z + t[2][3]
	w := t[3][0]*p.X + t[3][1]*p.Y + t[3][2]*p.Z + t[3][3]
	if w != 0 && w != 1 {
		return Pt(x/w, y/w, z/w)
	}
	return Pt(x, y, z)
}

func (t Transform) dense() *mat.Dense {
	d := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			d.Set(i, j, t[i][j])
		}
	}
	return d
}

// Determinant returns the determinant of the matrix.
func (t Transform) Determinant() float64 {
	return mat.Det(t.dense())
}

// Mirrors reports whether the transform reverses orientation. Polygon
// winding must be reversed after applying such a transform.
func (t Transform) Mirrors() bool {
	return t.Determinant() < 0
}

// Inverse returns the inverse transform.
func (t Transform) Inverse() (Transform, error) {
	var inv mat.Dense
	if err := inv.Inverse(t.dense()); err != nil {
		return Transform{}, errors.Join(ErrSingular, err)
	}
	var r Transform
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = inv.At(i, j)
		}
	}
	return r, nil
}
