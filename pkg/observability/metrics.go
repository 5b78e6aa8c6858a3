package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics, labelled by key namespace
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheErrors *prometheus.CounterVec

	// Upstream metrics
	UpstreamAttempts *prometheus.CounterVec

	// Sync job metrics
	SyncJobs        *prometheus.CounterVec
	SyncRunDuration prometheus.Histogram

	CircuitBreakerState *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry, so tests can build as many as they need.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"namespace"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"namespace"},
		),
		CacheErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_errors_total",
				Help:      "Total number of cache backend failures",
			},
			[]string{"namespace", "operation"},
		),
		UpstreamAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_attempts_total",
				Help:      "Total number of outbound request attempts",
			},
			[]string{"host", "outcome"},
		),
		SyncJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_jobs_total",
				Help:      "Total number of weather sync jobs by outcome",
			},
			[]string{"outcome"},
		),
		SyncRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_run_duration_seconds",
				Help:      "Duration of a full weather sync run",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheHits,
		c.CacheMisses,
		c.CacheErrors,
		c.UpstreamAttempts,
		c.SyncJobs,
		c.SyncRunDuration,
		c.CircuitBreakerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the exposition format for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordCacheHit(namespace string) {
	c.CacheHits.WithLabelValues(namespace).Inc()
}

func (c *Collector) RecordCacheMiss(namespace string) {
	c.CacheMisses.WithLabelValues(namespace).Inc()
}

func (c *Collector) RecordCacheError(namespace, op string) {
	c.CacheErrors.WithLabelValues(namespace, op).Inc()
}

func (c *Collector) RecordUpstreamAttempt(host, outcome string) {
	c.UpstreamAttempts.WithLabelValues(host, outcome).Inc()
}

// RecordSyncJob counts one finished sync job.
func (c *Collector) RecordSyncJob(outcome string) {
	c.SyncJobs.WithLabelValues(outcome).Inc()
}

// RecordSyncRun observes the duration of one scheduler run.
func (c *Collector) RecordSyncRun(duration time.Duration) {
	c.SyncRunDuration.Observe(duration.Seconds())
}

// SetCircuitBreakerState publishes a breaker state as 0, 1 or 2.
func (c *Collector) SetCircuitBreakerState(name string, state int) {
	c.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
