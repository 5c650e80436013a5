package cache

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/chazu/facet/pkg/geom"
)

// Fingerprint is the structural key of a shape: its kind, its coordinates
// quantized to integers and its faces renumbered by first use. Shapes
// equal up to quantization and vertex pool order share a fingerprint.
type Fingerprint struct {
	Sum  uint64
	data []byte
}

// Equal reports whether f and o describe the same shape.
func (f Fingerprint) Equal(o Fingerprint) bool {
	return f.Sum == o.Sum && bytes.Equal(f.data, o.data)
}

// Quantize maps a coordinate to an integer at the given number of
// decimal places.
func Quantize(v float64, precision int) int64 {
	return int64(math.Round(v * math.Pow(10, float64(precision))))
}

// NewFingerprint computes the fingerprint of m.
func NewFingerprint(m geom.IndexedMesh, precision int) Fingerprint {
	type qpoint [3]int64
	ordinal := map[qpoint]int64{}
	var buf bytes.Buffer
	put := func(v int64) {
		var b [binary.MaxVarintLen64]byte
		n := binary.PutVarint(b[:], v)
		buf.Write(b[:n])
	}
	var pts []qpoint

	put(int64(m.Kind))
	put(int64(len(m.Faces)))
	faces := make([][]int64, len(m.Faces))
	for i, f := range m.Faces {
		faces[i] = make([]int64, len(f))
		for j, idx := range f {
			p := m.Points[idx]
			q := qpoint{Quantize(p.X, precision), Quantize(p.Y, precision), Quantize(p.Z, precision)}
			o, ok := ordinal[q]
			if !ok {
				o = int64(len(pts))
				ordinal[q] = o
				pts = append(pts, q)
			}
			faces[i][j] = o
		}
	}
	put(int64(len(pts)))
	for _, q := range pts {
		put(q[0])
		put(q[1])
		put(q[2])
	}
	for _, f := range faces {
		put(int64(len(f)))
		for _, o := range f {
			put(o)
		}
	}
	data := buf.Bytes()
	return Fingerprint{Sum: xxhash.Sum64(data), data: data}
}
