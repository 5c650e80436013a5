// Package evaluate reduces a node tree to a single Primitive. Sequential
// folds the tree on the calling goroutine and batches unions with the
// deferred combine; Concurrent reduces sibling subtrees in parallel on a
// bounded pool.
package evaluate

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/facet/pkg/cache"
	"github.com/chazu/facet/pkg/config"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/kernel/bsp"
	"github.com/chazu/facet/pkg/kernel/manifold"
	"github.com/chazu/facet/pkg/kernel/sdfx"
	"github.com/chazu/facet/pkg/primitive"
	"github.com/chazu/facet/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Evaluator reduces a node tree to one Primitive.
type Evaluator interface {
	Evaluate(ctx context.Context, root *graph.Node) Result
	// Cache returns the shape cache leaves pass through. Unless WithCache
	// was given it is the process-wide one returned by Shared.
	Cache() *cache.Manager[*primitive.Primitive]
}

// Importer loads the shape an import node names. Codecs live outside
// this module.
type Importer interface {
	Import(ctx context.Context, path string) (*primitive.Primitive, error)
}

// Diagnostic is a problem reported while reducing one node.
type Diagnostic struct {
	NodeID   uuid.UUID
	Kind     graph.NodeKind
	Severity graph.ValidationSeverity
	Err      error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("[%s] %s node %s: %v", d.Severity, d.Kind, d.NodeID.String()[:8], d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

// Result is the outcome of an evaluation. Primitive is nil when the root
// produced nothing.
type Result struct {
	Primitive   *primitive.Primitive
	Diagnostics []Diagnostic
}

// Err joins the error diagnostics. Warnings are left out.
func (r Result) Err() error {
	var errs []error
	for _, d := range r.Diagnostics {
		if d.Severity == graph.SeverityError {
			errs = append(errs, d)
		}
	}
	return errors.Join(errs...)
}

// Warnings returns the warning diagnostics.
func (r Result) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == graph.SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// Option configures an evaluator.
type Option func(*env)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *env) { e.log = l }
}

// WithCache sets the cache leaves pass through in place of the
// process-wide one.
func WithCache(m *cache.Manager[*primitive.Primitive]) Option {
	return func(e *env) { e.cache = m }
}

// WithImporter sets the loader for import nodes.
func WithImporter(i Importer) Option {
	return func(e *env) { e.importer = i }
}

// WithMetrics reports node reductions, kernel operations and cache
// fetches to m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *env) { e.metrics = m }
}

// WithTracer sets the tracer node spans are started on.
func WithTracer(t trace.Tracer) Option {
	return func(e *env) { e.tracer = t }
}

// New returns the evaluator cfg selects: Sequential when cfg.Threads is
// zero, Concurrent otherwise. The kernel and cache follow cfg.
func New(cfg config.Config, opts ...Option) (Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k, err := NewKernel(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{withPrecision(cfg.Cache.Precision)}, opts...)
	var ev Evaluator
	if cfg.Threads == 0 {
		ev = NewSequential(k, opts...)
	} else {
		ev = NewConcurrent(k, cfg.Threads, opts...)
	}
	if cfg.Cache.Enabled {
		ev.Cache().Enable()
	} else {
		ev.Cache().Disable()
	}
	return ev, nil
}

// NewKernel returns the kernel cfg names, or nil for the plain-mesh
// representation.
func NewKernel(cfg config.Config) (kernel.Kernel, error) {
	switch cfg.Kernel {
	case config.KernelBSP, "":
		return bsp.New(), nil
	case config.KernelSDF:
		return sdfx.New(cfg.SDF.MeshCells), nil
	case config.KernelManifold:
		return manifold.New()
	case config.KernelNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("evaluate: unknown kernel %q", cfg.Kernel)
	}
}

func withPrecision(places int) Option {
	return func(e *env) { e.precision = places }
}
