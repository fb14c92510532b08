// Package metrics defines the Prometheus collectors used by the frontend and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the frontend.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	UpstreamAttemptsTotal *prometheus.CounterVec
	UpstreamRetriesTotal  prometheus.Counter
	UpstreamLatency       *prometheus.HistogramVec
	SettingsCacheTotal    *prometheus.CounterVec
	ArticleCacheTotal     *prometheus.CounterVec
	DegradedTotal         *prometheus.CounterVec
	FeedGenerationsTotal  *prometheus.CounterVec
	InvalidationsTotal    *prometheus.CounterVec
	CircuitBreakerState   *prometheus.GaugeVec
}

var (
	defaultOnce sync.Once
	defaultSet  *Metrics
)

// Default returns a process-wide Metrics registered with the default
// Prometheus registry. It is safe to call from multiple packages.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultSet = New(prometheus.DefaultRegisterer)
	})
	return defaultSet
}

// New creates all collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		UpstreamAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_attempts_total",
				Help: "Content API request attempts by outcome (ok, client_error, server_error, transport_error, circuit_open).",
			},
			[]string{"outcome"},
		),
		UpstreamRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "upstream_retries_total",
				Help: "Content API attempts that were retries of an earlier failure.",
			},
		),
		UpstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_attempt_duration_seconds",
				Help:    "Latency of a single content API attempt in seconds.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		SettingsCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settings_cache_total",
				Help: "Settings lookups by result (hit, refresh, fallback).",
			},
			[]string{"result"},
		),
		ArticleCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "article_cache_total",
				Help: "Rendered article cache lookups by result (hit, miss, error).",
			},
			[]string{"result"},
		),
		DegradedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "content_degraded_total",
				Help: "Content operations that fell back to a neutral result.",
			},
			[]string{"operation"},
		),
		FeedGenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_generations_total",
				Help: "Generated feeds by kind (rss, sitemap) and status (full, degraded).",
			},
			[]string{"feed", "status"},
		),
		InvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_invalidations_total",
				Help: "Cache invalidation events handled by type.",
			},
			[]string{"type"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.HTTPRequestsInFlight,
			m.UpstreamAttemptsTotal,
			m.UpstreamRetriesTotal,
			m.UpstreamLatency,
			m.SettingsCacheTotal,
			m.ArticleCacheTotal,
			m.DegradedTotal,
			m.FeedGenerationsTotal,
			m.InvalidationsTotal,
			m.CircuitBreakerState,
		)
	}

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
