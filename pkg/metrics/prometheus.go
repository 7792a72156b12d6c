// Package metrics provides Prometheus metrics for the Brecher scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the Brecher service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring metrics
	cellWrites           *prometheus.CounterVec
	validationRejections *prometheus.CounterVec
	recomputeLatency     prometheus.Histogram
	degradedRecomputes   prometheus.Counter
	trackedWeeks         prometheus.Gauge

	// Store metrics
	storeOpLatency *prometheus.HistogramVec
	storeErrors    *prometheus.CounterVec
	storeRecords   prometheus.Gauge
	weekCacheHits  prometheus.Counter
	weekCacheMiss  prometheus.Counter
	weekCacheSize  prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authFailures        *prometheus.CounterVec
	throttledRequests   *prometheus.CounterVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "brecher",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.cellWrites = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cell_writes_total",
			Help:      "Total number of cell writes by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	m.validationRejections = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "validation_rejections_total",
			Help:      "Total number of writes refused by a category validator",
		},
		[]string{"category"},
	)

	m.recomputeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_latency_milliseconds",
		Help:      "Histogram of post-write week recompute latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.degradedRecomputes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "degraded_recomputes_total",
		Help:      "Writes that succeeded but whose recompute failed",
	})

	m.trackedWeeks = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_weeks",
		Help:      "Number of weeks present in the store",
	})

	m.storeOpLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "store",
			Name:      "operation_latency_milliseconds",
			Help:      "Store operation latency in milliseconds by backend and operation",
			Buckets:   m.histogramBuckets,
		},
		[]string{"backend", "op"},
	)

	m.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Store operation failures by backend and operation",
		},
		[]string{"backend", "op"},
	)

	m.storeRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "records",
		Help:      "Number of raw entries last counted in the store",
	})

	m.weekCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "week_cache_hits_total",
		Help:      "Week reads served from the cache",
	})

	m.weekCacheMiss = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "week_cache_misses_total",
		Help:      "Week reads that went to the backing store",
	})

	m.weekCacheSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "week_cache_size",
		Help:      "Number of weeks held in the cache",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.authFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "auth_failures_total",
			Help:      "Rejected logins and tokens by reason",
		},
		[]string{"reason"},
	)

	m.throttledRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "throttled_requests_total",
			Help:      "Requests refused by the write rate limiter",
		},
		[]string{"endpoint"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by HTTP endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)
}

// Scoring Metrics Functions.

// RecordCellWrite counts a cell write with its outcome.
func RecordCellWrite(category, outcome string) {
	globalManager.cellWrites.WithLabelValues(category, outcome).Inc()
}

// RecordValidationRejection counts a refused write.
func RecordValidationRejection(category string) {
	globalManager.validationRejections.WithLabelValues(category).Inc()
}

// RecordRecomputeLatency records the post-write recompute latency.
func RecordRecomputeLatency(latencyMs float64) {
	globalManager.recomputeLatency.Observe(latencyMs)
}

// RecordDegradedRecompute counts a write whose recompute failed.
func RecordDegradedRecompute() {
	globalManager.degradedRecomputes.Inc()
}

// UpdateTrackedWeeks sets the number of known weeks.
func UpdateTrackedWeeks(count int) {
	globalManager.trackedWeeks.Set(float64(count))
}

// Store Metrics Functions.

// RecordStoreLatency records the latency of one store operation.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.storeOpLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(backend, op string) {
	globalManager.storeErrors.WithLabelValues(backend, op).Inc()
}

// UpdateStoreRecords sets the number of raw entries.
func UpdateStoreRecords(count int) {
	globalManager.storeRecords.Set(float64(count))
}

// RecordWeekCacheHit counts a week read served by the cache.
func RecordWeekCacheHit() {
	globalManager.weekCacheHits.Inc()
}

// RecordWeekCacheMiss counts a week read that missed the cache.
func RecordWeekCacheMiss() {
	globalManager.weekCacheMiss.Inc()
}

// UpdateWeekCacheSize sets the number of cached weeks.
func UpdateWeekCacheSize(size int) {
	globalManager.weekCacheSize.Set(float64(size))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordAuthFailure counts a rejected login or token.
func RecordAuthFailure(reason string) {
	globalManager.authFailures.WithLabelValues(reason).Inc()
}

// RecordThrottled counts a request refused by the rate limiter.
func RecordThrottled(endpoint string) {
	globalManager.throttledRequests.WithLabelValues(endpoint).Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
