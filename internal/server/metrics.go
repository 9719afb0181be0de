package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/physicsuniverse/Covariant-Derivative/geometry"
)

// Metrics holds the server's Prometheus collectors. Each server owns its
// registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	rejected     *prometheus.CounterVec
	inFlight     prometheus.Gauge
}

func newMetrics(cache *geometry.Cache) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{
		registry: reg,
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gotensor",
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Tool calls by tool and result code",
		}, []string{"tool", "code"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gotensor",
			Subsystem: "tool",
			Name:      "duration_seconds",
			Help:      "Tool call latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"tool"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gotensor",
			Subsystem: "tool",
			Name:      "rejected_total",
			Help:      "Tool calls refused before running, by reason",
		}, []string{"reason"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gotensor",
			Subsystem: "tool",
			Name:      "in_flight",
			Help:      "Tool calls currently computing",
		}),
	}
	if cache != nil {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "gotensor",
			Subsystem: "christoffel_cache",
			Name:      "hits_total",
			Help:      "Christoffel cache hits",
		}, func() float64 { return float64(cache.Stats().Hits) })
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "gotensor",
			Subsystem: "christoffel_cache",
			Name:      "misses_total",
			Help:      "Christoffel cache misses",
		}, func() float64 { return float64(cache.Stats().Misses) })
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "gotensor",
			Subsystem: "christoffel_cache",
			Name:      "entries",
			Help:      "Connections held by the Christoffel cache",
		}, func() float64 { return float64(cache.Len()) })
	}
	return m
}

// Registry exposes the collectors, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observe(tool, code string, seconds float64) {
	if code == "" {
		code = "ok"
	}
	m.toolCalls.WithLabelValues(tool, code).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(seconds)
}
