// Package metrics provides Prometheus metrics for the kit curation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the curation service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Kit Build Metrics - The unit of business value
	kitsBuilt        prometheus.Counter
	kitBuildErrors   prometheus.Counter
	kitBuildDuration prometheus.Histogram

	// Planner Metrics - Category planning upstream of selection
	plannerErrors  prometheus.Counter
	plannerLatency prometheus.Histogram

	// Acquisition Metrics - Marketplace fetch volume and failures
	listingsFetched   prometheus.Counter
	acquisitionErrors prometheus.Counter

	// Curation Quality Metrics - Filter, dedupe and tier outcomes
	listingsRejected   *prometheus.CounterVec
	duplicateListings  prometheus.Counter
	tiersAssigned      *prometheus.CounterVec
	selectionFallbacks *prometheus.CounterVec
	selectionLatency   prometheus.Histogram
	seenListings       prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimitRejections prometheus.Counter

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "kitforge",
		subsystem:        "curation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Kit Build Metrics
	m.kitsBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kits_built_total",
		Help:      "Total number of starter kits successfully assembled",
	})

	m.kitBuildErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kit_build_errors_total",
		Help:      "Total number of kit build requests that failed outright",
	})

	m.kitBuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kit_build_duration_milliseconds",
		Help:      "End-to-end kit build duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Planner Metrics
	m.plannerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "planner_errors_total",
		Help:      "Total number of category planner failures",
	})

	m.plannerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "planner_latency_milliseconds",
		Help:      "Category planning latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Acquisition Metrics
	m.listingsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "listings_fetched_total",
		Help:      "Total number of raw listings fetched from the marketplace",
	})

	m.acquisitionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "acquisition_errors_total",
		Help:      "Total number of marketplace searches that failed after retries",
	})

	// Curation Quality Metrics
	m.listingsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "listings_rejected_total",
			Help:      "Total number of listings rejected by the candidate filter, by reason",
		},
		[]string{"reason"},
	)

	m.duplicateListings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_listings_total",
		Help:      "Total number of listings dropped as already selected",
	})

	m.tiersAssigned = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tiers_assigned_total",
			Help:      "Total number of tier assignments, by tier",
		},
		[]string{"tier"},
	)

	m.selectionFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "selection_fallbacks_total",
			Help:      "Total number of tier picks that needed a fallback strategy, by tier and stage",
		},
		[]string{"tier", "stage"},
	)

	m.selectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selection_latency_milliseconds",
		Help:      "Per-category tier selection latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.seenListings = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "seen_listings",
		Help:      "Current number of listing URLs tracked by the deduper",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.rateLimitRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limit_rejections_total",
		Help:      "Total number of requests rejected by the rate limiter",
	})

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// Kit Build Metrics Functions.

// RecordKitBuilt increments the kits built counter.
func RecordKitBuilt() {
	globalManager.kitsBuilt.Inc()
}

// RecordKitBuildError increments the kit build errors counter.
func RecordKitBuildError() {
	globalManager.kitBuildErrors.Inc()
}

// RecordKitBuildDuration records end-to-end kit build duration in milliseconds.
func RecordKitBuildDuration(durationMs float64) {
	globalManager.kitBuildDuration.Observe(durationMs)
}

// Planner Metrics Functions.

// RecordPlannerError increments the planner errors counter.
func RecordPlannerError() {
	globalManager.plannerErrors.Inc()
}

// RecordPlannerLatency records category planning latency in milliseconds.
func RecordPlannerLatency(latencyMs float64) {
	globalManager.plannerLatency.Observe(latencyMs)
}

// Acquisition Metrics Functions.

// RecordListingsFetched adds to the fetched listings counter.
func RecordListingsFetched(count int) {
	globalManager.listingsFetched.Add(float64(count))
}

// RecordAcquisitionError increments the acquisition errors counter.
func RecordAcquisitionError() {
	globalManager.acquisitionErrors.Inc()
}

// Curation Quality Metrics Functions.

// RecordListingRejected increments the rejected listings counter for a reason.
func RecordListingRejected(reason string) {
	globalManager.listingsRejected.WithLabelValues(reason).Inc()
}

// RecordListingsRejected adds to the rejected listings counter for a reason.
func RecordListingsRejected(reason string, count int) {
	globalManager.listingsRejected.WithLabelValues(reason).Add(float64(count))
}

// RecordDuplicateListing increments the duplicate listings counter.
func RecordDuplicateListing() {
	globalManager.duplicateListings.Inc()
}

// RecordTierAssigned increments the tier assignments counter for a tier.
func RecordTierAssigned(tier string) {
	globalManager.tiersAssigned.WithLabelValues(tier).Inc()
}

// RecordSelectionFallback increments the fallback counter for a tier and stage.
func RecordSelectionFallback(tier, stage string) {
	globalManager.selectionFallbacks.WithLabelValues(tier, stage).Inc()
}

// RecordSelectionLatency records per-category selection latency in milliseconds.
func RecordSelectionLatency(latencyMs float64) {
	globalManager.selectionLatency.Observe(latencyMs)
}

// UpdateSeenListings sets the current deduper size.
func UpdateSeenListings(count int64) {
	globalManager.seenListings.Set(float64(count))
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

// RecordRateLimitRejection increments the rate limit rejections counter.
func RecordRateLimitRejection() {
	globalManager.rateLimitRejections.Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
