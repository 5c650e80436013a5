package evaluate

import (
	"context"

	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/primitive"
	"github.com/samber/lo"
)

// Sequential reduces the tree depth first on the calling goroutine.
// Union children are queued on the first result and joined by one
// deferred combine.
type Sequential struct {
	env
}

// Compile-time interface check.
var _ Evaluator = (*Sequential)(nil)

// NewSequential returns a sequential evaluator over k. A nil kernel
// evaluates plain meshes.
func NewSequential(k kernel.Kernel, opts ...Option) *Sequential {
	return &Sequential{env: newEnv(k, opts...)}
}

// Evaluate reduces root. A tree that fails validation is not reduced.
func (s *Sequential) Evaluate(ctx context.Context, root *graph.Node) Result {
	var diags diagnostics
	if !s.validate(root, &diags) {
		return Result{Diagnostics: diags.all()}
	}
	p := s.evaluate(ctx, root, &diags)
	return Result{Primitive: p, Diagnostics: diags.all()}
}

func (s *Sequential) evaluate(ctx context.Context, n *graph.Node, diags *diagnostics) *primitive.Primitive {
	ctx, end := s.span(ctx, n)
	kids := make([]*primitive.Primitive, len(n.Children))
	for i, c := range n.Children {
		kids[i] = s.evaluate(ctx, c, diags)
	}
	p, err := s.reduce(ctx, n, kids, s.merge)
	end(err)
	if err != nil {
		s.report(diags, n, err)
		return nil
	}
	return p
}

// merge queues every child on the first one and combines once. Group
// nodes never union, so they are folded pairwise.
func (s *Sequential) merge(kind graph.NodeKind, kids []*primitive.Primitive) (*primitive.Primitive, error) {
	if kind == graph.NodeGroup {
		return pairwise(kind, kids)
	}
	kids = lo.Compact(kids)
	if len(kids) == 0 {
		return nil, nil
	}
	acc := kids[0]
	for _, c := range kids[1:] {
		acc.GroupLater(c)
	}
	return acc.Combine()
}
