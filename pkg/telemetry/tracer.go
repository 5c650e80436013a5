package telemetry

import (
	"github.com/chazu/facet/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name spans are recorded under.
const TracerName = "github.com/chazu/facet"

// Tracer returns the tracer of the globally installed provider. Without
// one the spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// NewTracerProvider builds a provider that hands finished spans to each
// processor. A disabled configuration samples nothing. Installing the
// provider with otel.SetTracerProvider and shutting it down are left to
// the host.
func NewTracerProvider(cfg config.TracingConfig, processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	sampler := sdktrace.AlwaysSample()
	if !cfg.Enabled {
		sampler = sdktrace.NeverSample()
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(opts...)
}
