package evaluate

import (
	"context"
	"fmt"

	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/primitive"
	"github.com/chazu/facet/pkg/shapes"
	"github.com/chazu/facet/pkg/telemetry"
	"github.com/samber/lo"
)

// mergeFunc joins the results of a union or group node. Nil entries are
// subtrees that produced nothing.
type mergeFunc func(kind graph.NodeKind, kids []*primitive.Primitive) (*primitive.Primitive, error)

func (e *env) options() []primitive.Option {
	return []primitive.Option{primitive.WithLogger(telemetry.Component(e.log, "primitive"))}
}

// reduce applies the rule of n's kind to its evaluated children.
func (e *env) reduce(ctx context.Context, n *graph.Node, kids []*primitive.Primitive, merge mergeFunc) (*primitive.Primitive, error) {
	switch {
	case n.Kind.Commutative():
		return merge(n.Kind, kids)
	case n.Kind.Ordered():
		return fold(n.Kind, kids)
	}

	switch n.Kind {
	case graph.NodePrimitive, graph.NodePoints, graph.NodeImport:
		p, err := e.leaf(ctx, n)
		if err != nil {
			return nil, err
		}
		p = e.fetch(p)
		rest := lo.Compact(kids)
		if len(rest) == 0 {
			return p, nil
		}
		return merge(graph.NodeUnion, append([]*primitive.Primitive{p}, rest...))
	case graph.NodeHull:
		d, _ := n.Data.(graph.HullData)
		return e.hull(d, lo.Compact(kids))
	case graph.NodeChildren:
		d, _ := n.Data.(graph.ChildrenData)
		if len(d.Indices) > 0 {
			kids = lo.Filter(kids, func(_ *primitive.Primitive, i int) bool {
				return lo.Contains(d.Indices, i)
			})
		}
		return merge(graph.NodeUnion, kids)
	}

	op, err := merge(graph.NodeUnion, kids)
	if err != nil || op == nil {
		return nil, err
	}
	if n.Kind == graph.NodeMaterial {
		d, _ := n.Data.(graph.MaterialData)
		return primitive.Annotate(d.Name, op), nil
	}
	return apply(n, op)
}

// leaf builds the shape a leaf node carries.
func (e *env) leaf(ctx context.Context, n *graph.Node) (*primitive.Primitive, error) {
	switch d := n.Data.(type) {
	case graph.PrimitiveData:
		return primitive.FromMesh(e.k, d.Mesh, e.options()...), nil
	case graph.PointsData:
		return primitive.FromMesh(e.k, shapes.PointSet(d.Points), e.options()...), nil
	case graph.ImportData:
		if e.importer == nil {
			return nil, fmt.Errorf("import %q: %w: no importer configured", d.Path, primitive.ErrUnsupported)
		}
		p, err := e.importer.Import(ctx, d.Path)
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", d.Path, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("evaluate: %s node carries %T", n.Kind, n.Data)
	}
}

// hull builds a plain hull over every child, or with d.Chain the union of
// the hulls of consecutive children.
func (e *env) hull(d graph.HullData, kids []*primitive.Primitive) (*primitive.Primitive, error) {
	if len(kids) == 0 {
		return nil, nil
	}
	seed := primitive.New(e.k, primitive.Points, e.options()...)
	if !d.Chain || len(kids) == 1 {
		for _, c := range kids {
			seed.AppendChild(c)
		}
		return seed.Hull(d.Concave)
	}
	for i := 0; i+1 < len(kids); i++ {
		seed.ChainHull(kids[i], kids[i+1])
	}
	if d.Closed && len(kids) > 2 {
		seed.ChainHull(kids[len(kids)-1], kids[0])
	}
	return seed.Combine()
}

type binaryOp func(a, b *primitive.Primitive) (*primitive.Primitive, error)

func opFor(kind graph.NodeKind) binaryOp {
	switch kind {
	case graph.NodeGroup:
		return (*primitive.Primitive).Group
	case graph.NodeDifference:
		return (*primitive.Primitive).Difference
	case graph.NodeIntersection:
		return (*primitive.Primitive).Intersection
	case graph.NodeSymmetricDifference:
		return (*primitive.Primitive).SymmetricDifference
	case graph.NodeMinkowski:
		return (*primitive.Primitive).Minkowski
	case graph.NodeGlide:
		return (*primitive.Primitive).Glide
	default:
		return (*primitive.Primitive).Union
	}
}

// fold is the ordered left fold: the first child seeds the accumulator and
// the rest are combined in child order. Without a seed there is nothing to
// operate on.
func fold(kind graph.NodeKind, kids []*primitive.Primitive) (*primitive.Primitive, error) {
	if len(kids) == 0 || kids[0] == nil {
		return nil, nil
	}
	op := opFor(kind)
	acc := kids[0]
	for _, c := range kids[1:] {
		if c == nil {
			continue
		}
		var err error
		if acc, err = op(acc, c); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// pairwise folds the non-nil kids in order with the operation of kind.
func pairwise(kind graph.NodeKind, kids []*primitive.Primitive) (*primitive.Primitive, error) {
	kids = lo.Compact(kids)
	if len(kids) == 0 {
		return nil, nil
	}
	return fold(kind, kids)
}

// apply runs the single-operand operation of n on op.
func apply(n *graph.Node, op *primitive.Primitive) (*primitive.Primitive, error) {
	switch d := n.Data.(type) {
	case graph.TransformData:
		return op.Transform(d.Matrix)
	case graph.AlignData:
		faces := make([]primitive.Face, 0, len(d.Faces))
		for _, s := range d.Faces {
			f, err := primitive.ParseFace(s)
			if err != nil {
				return nil, err
			}
			faces = append(faces, f)
		}
		return op.Align(d.Center, faces)
	case graph.ResizeData:
		return op.Resize(d.Auto, d.Size)
	case graph.SliceData:
		return op.Slice(d.Height, d.Thickness)
	case graph.ProjectionData:
		return op.Projection(d.Base)
	case graph.SubdivideData:
		return op.Subdivide(d.Level)
	case graph.SimplifyData:
		return op.Simplify(d.Ratio)
	case graph.DiscreteData:
		return op.Discrete(d.Places)
	case graph.OffsetData:
		return op.Inset(d.Amount)
	case graph.LinearExtrudeData:
		return op.LinearExtrude(d.Height, d.Axis)
	case graph.RotateExtrudeData:
		return op.RotateExtrude(d.Height, d.Radius, d.Sweep, d.Fragments, d.Axis)
	}

	switch n.Kind {
	case graph.NodeBoundary:
		return op.Boundary()
	case graph.NodeDecompose:
		return op.Decompose()
	case graph.NodeComplement:
		return op.Complement()
	case graph.NodeTriangulate:
		return op.Triangulate()
	default:
		return nil, fmt.Errorf("evaluate: no reduction for %s nodes", n.Kind)
	}
}
