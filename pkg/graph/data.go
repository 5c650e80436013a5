package graph

import "github.com/chazu/facet/pkg/geom"

// ---------------------------------------------------------------------------
// Leaves
// ---------------------------------------------------------------------------

// PrimitiveData is a leaf shape, already generated by the caller.
type PrimitiveData struct {
	Mesh geom.IndexedMesh `json:"mesh"`
}

func (PrimitiveData) nodeData() {}

// PointsData is an explicit point set.
type PointsData struct {
	Points []geom.Point `json:"points"`
}

func (PointsData) nodeData() {}

// ImportData names a file for the host's importer.
type ImportData struct {
	Path string `json:"path"`
}

func (ImportData) nodeData() {}

// ---------------------------------------------------------------------------
// Hulls and extrusions
// ---------------------------------------------------------------------------

// HullData selects the hull mode. A chained hull joins the hulls of
// consecutive children; Closed also joins the last child to the first.
type HullData struct {
	Concave bool `json:"concave,omitempty"`
	Chain   bool `json:"chain,omitempty"`
	Closed  bool `json:"closed,omitempty"`
}

func (HullData) nodeData() {}

// LinearExtrudeData sweeps the children by Height along Axis.
type LinearExtrudeData struct {
	Height float64    `json:"height"`
	Axis   geom.Point `json:"axis"`
}

func (LinearExtrudeData) nodeData() {}

// RotateExtrudeData revolves a flat profile about Axis. Sweep is in
// degrees; Height is the rise over the whole sweep.
type RotateExtrudeData struct {
	Height    float64    `json:"height,omitempty"`
	Radius    float64    `json:"radius,omitempty"`
	Sweep     float64    `json:"sweep"`
	Fragments int        `json:"fragments"`
	Axis      geom.Point `json:"axis"`
}

func (RotateExtrudeData) nodeData() {}

// ---------------------------------------------------------------------------
// Placement
// ---------------------------------------------------------------------------

// TransformData applies an affine matrix.
type TransformData struct {
	Matrix geom.Transform `json:"matrix"`
}

func (TransformData) nodeData() {}

// AlignData moves the bounds of the children onto the origin planes.
// Faces are named top, bottom, north, south, east and west.
type AlignData struct {
	Center bool     `json:"center,omitempty"`
	Faces  []string `json:"faces,omitempty"`
}

func (AlignData) nodeData() {}

// ResizeData scales the children to Size. Zero components are left to
// Auto.
type ResizeData struct {
	Size geom.Point `json:"size"`
	Auto [3]bool    `json:"auto"`
}

func (ResizeData) nodeData() {}

// ---------------------------------------------------------------------------
// Shape edits
// ---------------------------------------------------------------------------

// SliceData keeps the slab [Height, Height+Thickness]. A zero thickness
// gives the cross-section at Height.
type SliceData struct {
	Height    float64 `json:"height"`
	Thickness float64 `json:"thickness,omitempty"`
}

func (SliceData) nodeData() {}

// ProjectionData flattens onto the ground plane.
type ProjectionData struct {
	Base bool `json:"base,omitempty"`
}

func (ProjectionData) nodeData() {}

// SubdivideData is the number of subdivision rounds.
type SubdivideData struct {
	Level int `json:"level"`
}

func (SubdivideData) nodeData() {}

// SimplifyData is the fraction of edges to keep, in (0, 1].
type SimplifyData struct {
	Ratio float64 `json:"ratio"`
}

func (SimplifyData) nodeData() {}

// DiscreteData is the number of decimal places to round to.
type DiscreteData struct {
	Places int `json:"places"`
}

func (DiscreteData) nodeData() {}

// OffsetData insets a flat shape; negative amounts grow it.
type OffsetData struct {
	Amount float64 `json:"amount"`
}

func (OffsetData) nodeData() {}

// ---------------------------------------------------------------------------
// Structure
// ---------------------------------------------------------------------------

// MaterialData names the annotation wrapped around the children.
type MaterialData struct {
	Name string `json:"name"`
}

func (MaterialData) nodeData() {}

// ChildrenData selects children by index. No indices selects them all.
type ChildrenData struct {
	Indices []int `json:"indices,omitempty"`
}

func (ChildrenData) nodeData() {}
