package kernel

import "github.com/chazu/facet/pkg/geom"

// Mesh is a flat triangle mesh handed to renderers and exporters.
// Vertices has 3 floats per vertex (x,y,z), normals has 3 floats per
// vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name,omitempty"`
}

// AddTriangle appends one flat-shaded triangle.
func (m *Mesh) AddTriangle(a, b, c geom.Point) {
	n := geom.Unit(geom.Cross(geom.Sub(b, a), geom.Sub(c, a)))
	base := uint32(m.VertexCount())
	for i, v := range [3]geom.Point{a, b, c} {
		m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		m.Indices = append(m.Indices, base+uint32(i))
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the bounding box of the vertices.
func (m *Mesh) Bounds() geom.BBox {
	b := geom.EmptyBBox()
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		b = b.Extend(geom.Pt(float64(m.Vertices[i]), float64(m.Vertices[i+1]), float64(m.Vertices[i+2])))
	}
	return b
}
