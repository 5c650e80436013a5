package geom

// Kind is the topological dimension of a shape.
type Kind int

const (
	Volume  Kind = iota // closed, fully three-dimensional
	Surface             // flat or open faces
	Lines               // polylines
	Points              // isolated points
)

func (k Kind) String() string {
	switch k {
	case Volume:
		return "volume"
	case Surface:
		return "surface"
	case Lines:
		return "lines"
	case Points:
		return "points"
	default:
		return "unknown"
	}
}

// IndexedMesh is a point pool with faces indexing it. For Lines each face
// is a polyline and for Points each face holds one index.
type IndexedMesh struct {
	Kind   Kind
	Points []Point
	Faces  [][]int
}

// Loops resolves every face to its points.
func (m IndexedMesh) Loops() [][]Point {
	out := make([][]Point, len(m.Faces))
	for i, f := range m.Faces {
		loop := make([]Point, len(f))
		for j, idx := range f {
			loop[j] = m.Points[idx]
		}
		out[i] = loop
	}
	return out
}
