// Package metrics exposes Prometheus collectors for fetches, cache lookups and
// extraction outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes
const (
	OutcomeOK          = "ok"
	OutcomeTimeout     = "timeout"
	OutcomeStatus      = "status"
	OutcomeTransport   = "transport"
	OutcomeCircuitOpen = "circuit_open"
)

// Metrics groups the collectors used by the engine. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	extractions   *prometheus.CounterVec
	passDuration  prometheus.Histogram
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ski_fetches_total",
			Help: "Resort page fetches by outcome",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ski_fetch_duration_seconds",
			Help:    "Duration of resort page fetches",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ski_cache_lookups_total",
			Help: "Result cache lookups by result (hit or miss)",
		}, []string{"result"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ski_extractions_total",
			Help: "Computed extraction results by status",
		}, []string{"status"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ski_pass_duration_seconds",
			Help:    "Duration of full aggregation passes",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.cacheLookups,
		m.extractions,
		m.passDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one fetch outcome and its duration.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveExtraction records the status of a freshly computed result.
func (m *Metrics) ObserveExtraction(status string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(status).Inc()
}

// ObservePass records the duration of an aggregation pass.
func (m *Metrics) ObservePass(d time.Duration) {
	if m == nil {
		return
	}
	m.passDuration.Observe(d.Seconds())
}
