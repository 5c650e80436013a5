package telemetry

import (
	"net/http"
	"time"

	"github.com/chazu/facet/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records cache, kernel and evaluation metrics on a private
// registry. A disabled Metrics accepts every call and records nothing.
type Metrics struct {
	cacheFetches *prometheus.CounterVec
	cacheEntries prometheus.Gauge

	kernelOps      *prometheus.CounterVec
	kernelDuration *prometheus.HistogramVec

	nodesReduced *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates the collectors named under cfg.Namespace.
func NewMetrics(cfg config.MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}
	ns := cfg.Namespace
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		cacheFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "cache_fetches_total",
				Help:      "Cache fetches by result",
			},
			[]string{"result"},
		),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "cache_entries",
			Help:      "Canonical shapes held by the cache",
		}),
		kernelOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "kernel_operations_total",
				Help:      "Solid kernel operations by kernel, operation and status",
			},
			[]string{"kernel", "op", "status"},
		),
		kernelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "kernel_operation_duration_seconds",
				Help:      "Duration of solid kernel operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kernel", "op"},
		),
		nodesReduced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "nodes_reduced_total",
				Help:      "Tree nodes reduced by kind and status",
			},
			[]string{"kind", "status"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "node_reduction_duration_seconds",
				Help:      "Duration of node reductions in seconds, children included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{
		m.cacheFetches, m.cacheEntries, m.kernelOps, m.kernelDuration, m.nodesReduced, m.nodeDuration,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) enabled() bool { return m != nil && m.registry != nil }

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveCacheFetch records one cache fetch and the resulting entry count.
func (m *Metrics) ObserveCacheFetch(hit bool, entries int) {
	if !m.enabled() {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheFetches.WithLabelValues(result).Inc()
	m.cacheEntries.Set(float64(entries))
}

// ObserveKernelOp records one solid kernel operation.
func (m *Metrics) ObserveKernelOp(kernel, op string, d time.Duration, err error) {
	if !m.enabled() {
		return
	}
	m.kernelOps.WithLabelValues(kernel, op, status(err)).Inc()
	m.kernelDuration.WithLabelValues(kernel, op).Observe(d.Seconds())
}

// ObserveNode records the reduction of one tree node.
func (m *Metrics) ObserveNode(kind string, d time.Duration, err error) {
	if !m.enabled() {
		return
	}
	m.nodesReduced.WithLabelValues(kind, status(err)).Inc()
	m.nodeDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Registry returns the private registry, nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.enabled() {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
