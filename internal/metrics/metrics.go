// Package metrics defines the Prometheus collectors for index builds,
// queries and the HTTP front end, and exposes a scrape handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes for QueriesTotal.
const (
	OutcomeHit     = "hit"
	OutcomeEmpty   = "zero_result"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the collectors. Each instance owns its registry, so several
// engines can coexist in one process (and in tests).
type Metrics struct {
	registry *prometheus.Registry

	DocumentsIndexed    prometheus.Counter
	DocumentsSkipped    prometheus.Counter
	BuildDuration       prometheus.Histogram
	IndexTerms          prometheus.Gauge
	QueriesTotal        *prometheus.CounterVec
	QueryDuration       prometheus.Histogram
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notesearch_documents_indexed_total",
			Help: "Total documents merged into the index.",
		}),
		DocumentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notesearch_documents_skipped_total",
			Help: "Total documents skipped because they could not be read or extracted.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notesearch_build_duration_seconds",
			Help:    "Full index build latency in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
		IndexTerms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notesearch_index_terms",
			Help: "Number of distinct terms in the last written index.",
		}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notesearch_queries_total",
			Help: "Total search queries by outcome (hit, zero_result, invalid, error).",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notesearch_query_duration_seconds",
			Help:    "Search latency in seconds, excluding lazy builds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notesearch_posting_cache_hits_total",
			Help: "Total posting cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notesearch_posting_cache_misses_total",
			Help: "Total posting cache misses.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notesearch_http_requests_total",
			Help: "Total HTTP requests by method, route, and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notesearch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		m.DocumentsIndexed,
		m.DocumentsSkipped,
		m.BuildDuration,
		m.IndexTerms,
		m.QueriesTotal,
		m.QueryDuration,
		m.CacheHits,
		m.CacheMisses,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler for this instance.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveBuild records a finished build. A nil receiver is a no-op.
func (m *Metrics) ObserveBuild(indexed, skipped, terms int, d time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsIndexed.Add(float64(indexed))
	m.DocumentsSkipped.Add(float64(skipped))
	m.IndexTerms.Set(float64(terms))
	m.BuildDuration.Observe(d.Seconds())
}

// ObserveQuery records a finished query. A nil receiver is a no-op.
func (m *Metrics) ObserveQuery(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(outcome).Inc()
	m.QueryDuration.Observe(d.Seconds())
}

// CacheLookup counts a posting cache hit or miss. A nil receiver is a no-op.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// ObserveHTTP records one served request. A nil receiver is a no-op.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
