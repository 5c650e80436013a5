package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeKind enumerates the operations a node can perform.
type NodeKind int

const (
	NodeUnion               NodeKind = iota // union of all children
	NodeGroup                               // union without overlap resolution
	NodeDifference                          // first child minus the rest
	NodeIntersection                        // common part of all children
	NodeSymmetricDifference                 // parts in exactly one child
	NodeMinkowski                           // Minkowski sum, left to right
	NodeGlide                               // sweep along a polyline child
	NodeHull                                // convex, concave or chained hull
	NodeLinearExtrude
	NodeRotateExtrude
	NodeTransform
	NodeAlign
	NodeResize
	NodeBoundary
	NodeImport // shape read by the host's importer
	NodeSlice
	NodeProjection
	NodeDecompose
	NodeComplement
	NodeSubdivide
	NodeSimplify
	NodeDiscrete
	NodeTriangulate
	NodeOffset
	NodeMaterial  // annotation wrapping its children
	NodePoints    // explicit point set
	NodePrimitive // leaf mesh
	NodeChildren  // selects among the children
)

var kindNames = [...]string{
	NodeUnion:               "union",
	NodeGroup:               "group",
	NodeDifference:          "difference",
	NodeIntersection:        "intersection",
	NodeSymmetricDifference: "symmetric_difference",
	NodeMinkowski:           "minkowski",
	NodeGlide:               "glide",
	NodeHull:                "hull",
	NodeLinearExtrude:       "linear_extrude",
	NodeRotateExtrude:       "rotate_extrude",
	NodeTransform:           "transform",
	NodeAlign:               "align",
	NodeResize:              "resize",
	NodeBoundary:            "boundary",
	NodeImport:              "import",
	NodeSlice:               "slice",
	NodeProjection:          "projection",
	NodeDecompose:           "decompose",
	NodeComplement:          "complement",
	NodeSubdivide:           "subdivide",
	NodeSimplify:            "simplify",
	NodeDiscrete:            "discrete",
	NodeTriangulate:         "triangulate",
	NodeOffset:              "offset",
	NodeMaterial:            "material",
	NodePoints:              "points",
	NodePrimitive:           "primitive",
	NodeChildren:            "children",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseNodeKind returns the kind named s.
func ParseNodeKind(s string) (NodeKind, error) {
	for i, n := range kindNames {
		if n == s {
			return NodeKind(i), nil
		}
	}
	return 0, fmt.Errorf("graph: unknown node kind %q", s)
}

// Commutative reports whether the children of a node of this kind may be
// combined in any order.
func (k NodeKind) Commutative() bool {
	return k == NodeUnion || k == NodeGroup
}

// Ordered reports whether the children are folded strictly left to right,
// the first one seeding the result.
func (k NodeKind) Ordered() bool {
	switch k {
	case NodeDifference, NodeIntersection, NodeSymmetricDifference, NodeMinkowski, NodeGlide:
		return true
	}
	return false
}

// Node is one operation of the tree.
type Node struct {
	ID       uuid.UUID `json:"id"`
	Kind     NodeKind  `json:"kind"`
	Name     string    `json:"name,omitempty"`
	Children []*Node   `json:"children,omitempty"`
	Data     NodeData  `json:"data,omitempty"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// New returns a node with a fresh ID.
func New(kind NodeKind, data NodeData, children ...*Node) *Node {
	return &Node{ID: uuid.New(), Kind: kind, Data: data, Children: children}
}

// Named sets the node's name and returns the node.
func (n *Node) Named(name string) *Node {
	n.Name = name
	return n
}

// Add appends children.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s %q (%s)", n.Kind, n.Name, short(n.ID))
	}
	return fmt.Sprintf("%s (%s)", n.Kind, short(n.ID))
}

func short(id uuid.UUID) string {
	return id.String()[:8]
}

// Walk visits n and its descendants depth first, parents before children.
// The tree must be valid; Walk does not guard against cycles.
// Returning false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Count returns the number of nodes in the tree under n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node) bool {
		total++
		return true
	})
	return total
}
