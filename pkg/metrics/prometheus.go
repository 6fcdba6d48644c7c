// Package metrics provides Prometheus metrics for the huddle dashboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Record source
	fetchTotal     prometheus.Counter
	fetchErrors    *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	fetchedRecords prometheus.Gauge

	// Snapshot repository
	snapshotRecords     prometheus.Gauge
	snapshotReplaced    prometheus.Counter
	snapshotLastUnix    prometheus.Gauge
	snapshotAgeSeconds  prometheus.Gauge
	refreshQueueSize    prometheus.Gauge
	refreshQueueRejects *prometheus.CounterVec

	// Derived views
	viewSize         *prometheus.GaugeVec
	deriveLatency    prometheus.Histogram
	dashboardRenders prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "huddle",
		subsystem:        "dashboard",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.fetchTotal = auto.NewCounter(m.counterOpts("fetch_total", "Total number of record source fetches attempted"))
	m.fetchErrors = auto.NewCounterVec(m.counterOpts("fetch_errors_total", "Record source fetch failures by kind"), []string{"kind"})
	m.fetchLatency = auto.NewHistogram(m.histogramOpts("fetch_latency_milliseconds", "Record source fetch latency in milliseconds", m.histogramBuckets))
	m.fetchedRecords = auto.NewGauge(m.gaugeOpts("fetched_records", "Number of records returned by the last successful fetch"))

	m.snapshotRecords = auto.NewGauge(m.gaugeOpts("snapshot_records", "Number of records in the current snapshot"))
	m.snapshotReplaced = auto.NewCounter(m.counterOpts("snapshot_replaced_total", "Number of times the snapshot was replaced"))
	m.snapshotLastUnix = auto.NewGauge(m.gaugeOpts("snapshot_last_unix", "Unix timestamp of the current snapshot"))
	m.snapshotAgeSeconds = auto.NewGauge(m.gaugeOpts("snapshot_age_seconds", "Age of the current snapshot in seconds"))
	m.refreshQueueSize = auto.NewGauge(m.gaugeOpts("refresh_queue_size", "Pending refresh requests"))
	m.refreshQueueRejects = auto.NewCounterVec(m.counterOpts("refresh_rejected_total", "Refresh requests rejected by reason"), []string{"reason"})

	m.viewSize = auto.NewGaugeVec(m.gaugeOpts("view_size", "Number of records in each derived view"), []string{"view"})
	m.deriveLatency = auto.NewHistogram(m.histogramOpts("derive_latency_milliseconds", "Time spent deriving the dashboard views", []float64{0.1, 0.5, 1, 5, 10, 50, 100}))
	m.dashboardRenders = auto.NewCounter(m.counterOpts("renders_total", "Number of dashboards computed"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component"), []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}))
}

// Record source.

// RecordFetch records a successful fetch.
func RecordFetch(latencyMs float64, records int) {
	globalManager.fetchTotal.Inc()
	globalManager.fetchLatency.Observe(latencyMs)
	globalManager.fetchedRecords.Set(float64(records))
}

// RecordFetchError records a failed fetch of the given kind (transport, status, decode).
func RecordFetchError(kind string, latencyMs float64) {
	globalManager.fetchTotal.Inc()
	globalManager.fetchLatency.Observe(latencyMs)
	globalManager.fetchErrors.WithLabelValues(kind).Inc()
	globalManager.errorRateByComponent.WithLabelValues("source", kind).Inc()
}

// Snapshot repository.

// RecordSnapshotReplaced records a wholesale snapshot replacement.
func RecordSnapshotReplaced(records int, at time.Time) {
	globalManager.snapshotReplaced.Inc()
	globalManager.snapshotRecords.Set(float64(records))
	globalManager.snapshotLastUnix.Set(float64(at.Unix()))
	globalManager.snapshotAgeSeconds.Set(0)
}

// UpdateSnapshotAge sets the age of the current snapshot.
func UpdateSnapshotAge(age time.Duration) {
	globalManager.snapshotAgeSeconds.Set(age.Seconds())
}

// UpdateRefreshQueueSize sets the number of pending refresh requests.
func UpdateRefreshQueueSize(size int) {
	globalManager.refreshQueueSize.Set(float64(size))
}

// RecordRefreshRejected counts a refresh request that could not be queued.
func RecordRefreshRejected(reason string) {
	globalManager.refreshQueueRejects.WithLabelValues(reason).Inc()
}

// Derived views.

// RecordDashboard records the sizes of the three derived views.
func RecordDashboard(today, alerts, missing int, latencyMs float64) {
	globalManager.dashboardRenders.Inc()
	globalManager.deriveLatency.Observe(latencyMs)
	globalManager.viewSize.WithLabelValues("today").Set(float64(today))
	globalManager.viewSize.WithLabelValues("alerts").Set(float64(alerts))
	globalManager.viewSize.WithLabelValues("missing").Set(float64(missing))
}

// HTTP.

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
