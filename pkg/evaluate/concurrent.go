package evaluate

import (
	"context"

	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/primitive"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Concurrent reduces sibling subtrees in parallel. Every child subtree
// runs on its own goroutine; at most threads of them do kernel work at
// any time. A goroutine waiting for its children holds no slot.
type Concurrent struct {
	env
	threads int
	sem     *semaphore.Weighted
}

// Compile-time interface check.
var _ Evaluator = (*Concurrent)(nil)

// NewConcurrent returns an evaluator over k with threads workers.
func NewConcurrent(k kernel.Kernel, threads int, opts ...Option) *Concurrent {
	if threads < 1 {
		threads = 1
	}
	return &Concurrent{
		env:     newEnv(k, opts...),
		threads: threads,
		sem:     semaphore.NewWeighted(int64(threads)),
	}
}

// Threads returns the size of the worker pool.
func (c *Concurrent) Threads() int { return c.threads }

// Evaluate reduces root. A tree that fails validation is not reduced.
func (c *Concurrent) Evaluate(ctx context.Context, root *graph.Node) Result {
	var diags diagnostics
	if !c.validate(root, &diags) {
		return Result{Diagnostics: diags.all()}
	}
	p := c.evaluate(ctx, root, &diags)
	return Result{Primitive: p, Diagnostics: diags.all()}
}

func (c *Concurrent) evaluate(ctx context.Context, n *graph.Node, diags *diagnostics) *primitive.Primitive {
	ctx, end := c.span(ctx, n)
	var (
		p   *primitive.Primitive
		err error
	)
	if n.Kind.Commutative() && len(n.Children) > 0 {
		p, err = c.unordered(ctx, n, diags)
	} else {
		kids := c.ordered(ctx, n, diags)
		err = c.run(ctx, func() error {
			var rerr error
			p, rerr = c.reduce(ctx, n, kids, c.merge)
			return rerr
		})
	}
	end(err)
	if err != nil {
		c.report(diags, n, err)
		return nil
	}
	return p
}

// run holds a worker slot while fn does kernel work.
func (c *Concurrent) run(ctx context.Context, fn func() error) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)
	return fn()
}

// ordered evaluates the children in parallel and returns their results in
// child order.
func (c *Concurrent) ordered(ctx context.Context, n *graph.Node, diags *diagnostics) []*primitive.Primitive {
	kids := make([]*primitive.Primitive, len(n.Children))
	var g errgroup.Group
	for i, child := range n.Children {
		g.Go(func() error {
			kids[i] = c.evaluate(ctx, child, diags)
			return nil
		})
	}
	_ = g.Wait()
	return kids
}

// unordered folds the children of a commutative node in completion
// order. A failed step drops the accumulator; the node yields nothing.
func (c *Concurrent) unordered(ctx context.Context, n *graph.Node, diags *diagnostics) (*primitive.Primitive, error) {
	results := make(chan *primitive.Primitive, len(n.Children))
	var g errgroup.Group
	for _, child := range n.Children {
		g.Go(func() error {
			results <- c.evaluate(ctx, child, diags)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	op := opFor(n.Kind)
	var (
		acc    *primitive.Primitive
		failed error
	)
	for r := range results {
		if r == nil || failed != nil {
			continue
		}
		if acc == nil {
			acc = r
			continue
		}
		if err := c.run(ctx, func() error {
			var err error
			acc, err = op(acc, r)
			return err
		}); err != nil {
			acc, failed = nil, err
		}
	}
	return acc, failed
}

// merge joins operands inside a single reduction step.
func (c *Concurrent) merge(kind graph.NodeKind, kids []*primitive.Primitive) (*primitive.Primitive, error) {
	return pairwise(kind, kids)
}
