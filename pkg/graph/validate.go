package graph

import (
	"errors"
	"fmt"

	"github.com/chazu/facet/pkg/geom"
	"github.com/google/uuid"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   uuid.UUID          // which node has the problem (zero if tree-level)
	Kind     NodeKind           // kind of that node
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID == uuid.Nil {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s node %s: %s", e.Severity, e.Kind, short(e.NodeID), e.Message)
}

// Validate checks that the tree under root is strictly hierarchical and
// that every node carries the payload its kind needs with usable
// parameters. An empty result means the tree is valid. Validate never
// modifies the tree.
func Validate(root *Node) []ValidationError {
	if root == nil {
		return []ValidationError{{Message: "tree has no root", Severity: SeverityError}}
	}
	errs := validateTree(root)
	if len(errs) > 0 {
		// Payload checks walk the tree and need it to be acyclic.
		return errs
	}
	Walk(root, func(n *Node) bool {
		errs = append(errs, validatePayload(n)...)
		return true
	})
	return errs
}

// Err joins the blocking findings into one error, nil when there are none.
func Err(findings []ValidationError) error {
	var errs []error
	for _, f := range findings {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		}
	}
	return errors.Join(errs...)
}

// validateTree checks for cycles and shared nodes using DFS with 3-color
// marking. White (0) = unvisited, gray (1) = on the current path, black
// (2) = fully explored. Reaching a gray node closes a cycle; reaching a
// black one means the node has a second parent.
func validateTree(root *Node) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*Node]int) // default zero = white
	var errs []ValidationError

	var visit func(n *Node)
	visit = func(n *Node) {
		color[n] = gray
		for i, c := range n.Children {
			switch {
			case c == nil:
				errs = append(errs, finding(n, SeverityError, "child %d is nil", i))
			case color[c] == gray:
				errs = append(errs, finding(c, SeverityError, "cycle detected: node is its own descendant"))
			case color[c] == black:
				errs = append(errs, finding(c, SeverityError, "node has more than one parent"))
			default:
				visit(c)
			}
		}
		color[n] = black
	}
	visit(root)
	return errs
}

func finding(n *Node, sev ValidationSeverity, format string, args ...any) ValidationError {
	return ValidationError{NodeID: n.ID, Kind: n.Kind, Message: fmt.Sprintf(format, args...), Severity: sev}
}

var faceNames = map[string]bool{
	"top": true, "bottom": true, "north": true, "south": true, "east": true, "west": true,
}

// validatePayload checks the payload type and parameters of one node.
func validatePayload(n *Node) []ValidationError {
	var errs []ValidationError
	bad := func(format string, args ...any) {
		errs = append(errs, finding(n, SeverityError, format, args...))
	}
	warn := func(format string, args ...any) {
		errs = append(errs, finding(n, SeverityWarning, format, args...))
	}
	wrong := func() {
		if n.Data == nil {
			bad("missing %s payload", n.Kind)
		} else {
			bad("unexpected payload %T", n.Data)
		}
	}

	switch n.Kind {
	case NodeUnion, NodeGroup, NodeDifference, NodeIntersection, NodeSymmetricDifference,
		NodeMinkowski, NodeGlide, NodeBoundary, NodeDecompose, NodeComplement, NodeTriangulate:
		if n.Data != nil {
			bad("unexpected payload %T", n.Data)
		}
		if n.Kind.Ordered() && len(n.Children) == 0 {
			warn("no children")
		}
	case NodePrimitive:
		if _, ok := n.Data.(PrimitiveData); !ok {
			wrong()
		}
	case NodePoints:
		if _, ok := n.Data.(PointsData); !ok {
			wrong()
		}
	case NodeImport:
		d, ok := n.Data.(ImportData)
		switch {
		case !ok:
			wrong()
		case d.Path == "":
			bad("empty import path")
		}
	case NodeHull:
		if n.Data != nil {
			if _, ok := n.Data.(HullData); !ok {
				wrong()
			}
		}
	case NodeLinearExtrude:
		d, ok := n.Data.(LinearExtrudeData)
		switch {
		case !ok:
			wrong()
		case geom.Norm(d.Axis) == 0 || d.Height == 0:
			warn("zero-length extrusion")
		}
	case NodeRotateExtrude:
		d, ok := n.Data.(RotateExtrudeData)
		if !ok {
			wrong()
			break
		}
		if geom.Norm(d.Axis) == 0 {
			warn("zero-length axis")
		}
		if d.Sweep == 0 {
			warn("zero sweep")
		}
		if d.Fragments < 3 {
			warn("%d fragments, at least 3 are used", d.Fragments)
		}
	case NodeTransform:
		if _, ok := n.Data.(TransformData); !ok {
			wrong()
		}
	case NodeAlign:
		d, ok := n.Data.(AlignData)
		if !ok {
			wrong()
			break
		}
		for _, f := range d.Faces {
			if !faceNames[f] {
				bad("unknown face %q", f)
			}
		}
	case NodeResize:
		d, ok := n.Data.(ResizeData)
		switch {
		case !ok:
			wrong()
		case d.Size.X < 0 || d.Size.Y < 0 || d.Size.Z < 0:
			bad("negative size %v", d.Size)
		}
	case NodeSlice:
		d, ok := n.Data.(SliceData)
		switch {
		case !ok:
			wrong()
		case d.Thickness < 0:
			bad("negative thickness %g", d.Thickness)
		}
	case NodeProjection:
		if _, ok := n.Data.(ProjectionData); !ok {
			wrong()
		}
	case NodeSubdivide:
		d, ok := n.Data.(SubdivideData)
		switch {
		case !ok:
			wrong()
		case d.Level < 0:
			bad("negative level %d", d.Level)
		}
	case NodeSimplify:
		d, ok := n.Data.(SimplifyData)
		switch {
		case !ok:
			wrong()
		case d.Ratio <= 0 || d.Ratio > 1:
			bad("ratio %g outside (0, 1]", d.Ratio)
		}
	case NodeDiscrete:
		d, ok := n.Data.(DiscreteData)
		switch {
		case !ok:
			wrong()
		case d.Places < 0:
			bad("negative places %d", d.Places)
		}
	case NodeOffset:
		if _, ok := n.Data.(OffsetData); !ok {
			wrong()
		}
	case NodeMaterial:
		if _, ok := n.Data.(MaterialData); !ok {
			wrong()
		}
	case NodeChildren:
		if n.Data == nil {
			break
		}
		d, ok := n.Data.(ChildrenData)
		if !ok {
			wrong()
			break
		}
		for _, i := range d.Indices {
			if i < 0 || i >= len(n.Children) {
				warn("child index %d out of range", i)
			}
		}
	default:
		bad("unknown node kind")
	}
	return errs
}
