package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "places_query_duration_seconds",
			Help:    "Duration of place store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_query_errors_total",
			Help: "Total number of failed place store queries",
		},
		[]string{"operation"},
	)

	// Content cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cache_hits_total",
			Help: "Total number of content cache hits",
		},
		[]string{"type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cache_misses_total",
			Help: "Total number of content cache misses",
		},
		[]string{"type"},
	)

	CacheRefreshJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cache_refresh_jobs_total",
			Help: "Background cache refresh jobs by outcome (success, failure, dropped)",
		},
		[]string{"type", "result"},
	)

	CacheRefreshQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "content_cache_refresh_queue_depth",
			Help: "Jobs waiting in the cache refresh queue",
		},
	)

	// Upstream adapters
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Requests to third-party content APIs",
		},
		[]string{"source", "result"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of third-party content API requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Place snapshot
	SnapshotLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "place_snapshot_loads_total",
			Help: "Place snapshot reloads by result",
		},
		[]string{"result"},
	)

	SnapshotSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "place_snapshot_places",
			Help: "Published places held in the current snapshot",
		},
	)

	// Ingestion
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound storefront webhook events by type and result",
		},
		[]string{"event_type", "result"},
	)

	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "place_import_rows_total",
			Help: "CSV import rows by result",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordQuery records a place store query and whether it failed.
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordUpstream records one call to a content API.
func RecordUpstream(source string, start time.Time, err error) {
	UpstreamDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	UpstreamRequests.WithLabelValues(source, result).Inc()
}
