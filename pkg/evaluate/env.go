package evaluate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chazu/facet/pkg/cache"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/primitive"
	"github.com/chazu/facet/pkg/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// env is the state both evaluators share.
type env struct {
	k         kernel.Kernel
	log       zerolog.Logger
	cache     *cache.Manager[*primitive.Primitive]
	precision int
	importer  Importer
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
}

func newEnv(k kernel.Kernel, opts ...Option) env {
	e := env{log: zerolog.Nop(), precision: cache.DefaultPrecision}
	for _, opt := range opts {
		opt(&e)
	}
	if e.tracer == nil {
		e.tracer = telemetry.Tracer()
	}
	if e.metrics != nil && k != nil {
		k = kernel.Observed(k, e.metrics)
	}
	e.k = k
	if e.cache == nil {
		e.cache = Shared(k, e.precision, e.log)
	}
	return e
}

type sharedKey struct {
	kernel    string
	precision int
}

var (
	sharedMu sync.Mutex
	shared   = map[sharedKey]*cache.Manager[*primitive.Primitive]{}
)

// Shared returns the process-wide cache for shapes built on kernels named
// like k at the given precision. A nil kernel has a cache of its own.
// The first caller's logger is kept.
func Shared(k kernel.Kernel, precision int, log zerolog.Logger) *cache.Manager[*primitive.Primitive] {
	key := sharedKey{kernel: "mesh", precision: precision}
	if k != nil {
		key.kernel = k.Name()
	}
	sharedMu.Lock()
	defer sharedMu.Unlock()
	m, ok := shared[key]
	if !ok {
		m = cache.NewManager[*primitive.Primitive](
			cache.WithPrecision(precision),
			cache.WithLogger(telemetry.Component(log, "cache").With().Str("kernel", key.kernel).Logger()),
		)
		shared[key] = m
	}
	return m
}

// fetch passes a leaf through the cache and reports hits to the metrics.
func (e *env) fetch(p *primitive.Primitive) *primitive.Primitive {
	if !e.cache.Enabled() {
		return p
	}
	out := e.cache.Fetch(p)
	if e.metrics != nil {
		e.metrics.ObserveCacheFetch(out != p, e.cache.Len())
	}
	return out
}

// Cache returns the cache leaves are passed through.
func (e *env) Cache() *cache.Manager[*primitive.Primitive] { return e.cache }

// Kernel returns the kernel new shapes are built on.
func (e *env) Kernel() kernel.Kernel { return e.k }

// diagnostics collects reports from any goroutine.
type diagnostics struct {
	mu   sync.Mutex
	list []Diagnostic
}

func (d *diagnostics) add(diag Diagnostic) {
	d.mu.Lock()
	d.list = append(d.list, diag)
	d.mu.Unlock()
}

func (d *diagnostics) all() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Diagnostic(nil), d.list...)
}

// validate reports the findings of graph.Validate and whether evaluation
// may go ahead.
func (e *env) validate(root *graph.Node, diags *diagnostics) bool {
	findings := graph.Validate(root)
	for _, f := range findings {
		diags.add(Diagnostic{NodeID: f.NodeID, Kind: f.Kind, Severity: f.Severity, Err: f})
	}
	if err := graph.Err(findings); err != nil {
		e.log.Error().Err(err).Int("findings", len(findings)).Msg("tree failed validation")
		return false
	}
	return true
}

// report records err against n. Unsupported configurations are warnings.
func (e *env) report(diags *diagnostics, n *graph.Node, err error) {
	sev := graph.SeverityError
	ev := e.log.Error()
	if errors.Is(err, primitive.ErrUnsupported) {
		sev = graph.SeverityWarning
		ev = e.log.Warn()
	}
	ev.Err(err).Stringer("kind", n.Kind).Str("node", n.ID.String()).Msg("reduction failed")
	diags.add(Diagnostic{NodeID: n.ID, Kind: n.Kind, Severity: sev, Err: err})
}

// span starts the trace span of one node reduction. The returned func
// ends it and records the outcome.
func (e *env) span(ctx context.Context, n *graph.Node) (context.Context, func(error)) {
	start := time.Now()
	ctx, sp := e.tracer.Start(ctx, "reduce "+n.Kind.String(), trace.WithAttributes(
		attribute.String("node.id", n.ID.String()),
		attribute.String("node.kind", n.Kind.String()),
		attribute.Int("node.children", len(n.Children)),
	))
	if n.Name != "" {
		sp.SetAttributes(attribute.String("node.name", n.Name))
	}
	return ctx, func(err error) {
		if err != nil {
			sp.RecordError(err)
			sp.SetStatus(codes.Error, err.Error())
		}
		sp.End()
		e.metrics.ObserveNode(n.Kind.String(), time.Since(start), err)
	}
}
