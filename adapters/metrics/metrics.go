// Package metrics provides Prometheus metrics collection for newsdemo.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for newsdemo.
type Collector struct {
	// HTTP server metrics (front-end and backend)
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Backend auth metrics
	AuthFailures *prometheus.CounterVec

	// Backend calls made by the API client
	UpstreamDuration *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec

	// Query cache metrics, labelled by query name (e.g. "news.list")
	QueryFetches       *prometheus.CounterVec
	QueryHits          *prometheus.CounterVec
	QueryCoalesced     *prometheus.CounterVec
	QueryErrors        *prometheus.CounterVec
	QueryInvalidations *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default Prometheus registry.
// Call it once per process.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collector with reg, so tests can use a
// private registry.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	f := factory{promauto.With(reg)}
	queryCounter := func(name, help string) *prometheus.CounterVec {
		return f.counters(name, help, "query")
	}

	return &Collector{
		RequestsTotal:    f.counters("requests_total", "Total number of HTTP requests processed", "method", "path", "status"),
		RequestDuration:  f.histograms("request_duration_seconds", "HTTP request duration in seconds", httpBuckets, "method", "path", "status"),
		RequestsInFlight: f.gauge("requests_in_flight", "Number of HTTP requests currently being processed"),

		AuthFailures: f.counters("auth_failures_total", "Total number of rejected signup and login attempts", "reason"),

		UpstreamDuration: f.histograms("backend_request_duration_seconds", "Backend API call duration in seconds", backendBuckets, "method", "status"),
		UpstreamErrors:   f.counters("backend_errors_total", "Total number of failed backend API calls", "type"),

		QueryFetches:       queryCounter("query_fetches_total", "Total number of query functions executed"),
		QueryHits:          queryCounter("query_cache_hits_total", "Total number of reads served from a fresh cache entry"),
		QueryCoalesced:     queryCounter("query_coalesced_total", "Total number of reads that joined an in-flight fetch"),
		QueryErrors:        queryCounter("query_errors_total", "Total number of failed query functions"),
		QueryInvalidations: queryCounter("query_invalidations_total", "Total number of cache entries marked stale"),

		ConfigReloads:      f.counter("config_reloads_total", "Total number of successful config reloads"),
		ConfigReloadErrors: f.counter("config_reload_errors_total", "Total number of config reload errors"),
		ConfigLastReload:   f.gauge("config_last_reload_timestamp", "Unix timestamp of last successful config reload"),
	}
}

const namespace = "newsdemo"

var (
	httpBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	backendBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// factory names every metric under the newsdemo namespace.
type factory struct {
	promauto.Factory
}

func (f factory) counter(name, help string) prometheus.Counter {
	return f.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
}

func (f factory) counters(name, help string, labels ...string) *prometheus.CounterVec {
	return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

func (f factory) gauge(name, help string) prometheus.Gauge {
	return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func (f factory) histograms(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return f.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

// NormalizePath reduces cardinality by collapsing the id segment of item pages.
// e.g. /news-hooks/abc-123 -> /news-hooks/:id
func NormalizePath(path string) string {
	if rest, ok := strings.CutPrefix(path, "/news-hooks/"); ok && rest != "" {
		return "/news-hooks/:id"
	}
	if strings.HasPrefix(path, "/swagger/") {
		return "/swagger/*"
	}
	const maxLen = 50
	if len(path) > maxLen {
		return path[:maxLen] + "..."
	}
	return path
}
