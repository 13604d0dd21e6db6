// Package metrics provides Prometheus metrics for the talentboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the talentboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Record store
	storeRecords            *prometheus.GaugeVec
	storeMutations          *prometheus.CounterVec
	statusTransitions       *prometheus.CounterVec
	statusTransitionsDenied prometheus.Counter

	// Change stream
	changeQueueSize     prometheus.Gauge
	changeQueueCapacity prometheus.Gauge
	changeEnqueued      prometheus.Counter
	changeDequeued      prometheus.Counter
	changeDropped       *prometheus.CounterVec
	publishLatency      prometheus.Histogram
	publishErrors       prometheus.Counter
	workerCount         prometheus.Gauge

	// Prediction service
	predictLatency   prometheus.Histogram
	predictFallbacks prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "talentboard",
		subsystem:        "officials",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.storeRecords = auto.NewGaugeVec(m.gaugeOpts("store_records", "Records held by the store, by kind"), []string{"kind"})
	m.storeMutations = auto.NewCounterVec(m.counterOpts("store_mutations_total", "Successful store mutations, by operation"), []string{"operation"})
	m.statusTransitions = auto.NewCounterVec(m.counterOpts("status_transitions_total", "Assessment review transitions applied, by target status"), []string{"status"})
	m.statusTransitionsDenied = auto.NewCounter(m.counterOpts("status_transitions_rejected_total", "Review transitions rejected because the assessment was no longer pending"))

	m.changeQueueSize = auto.NewGauge(m.gaugeOpts("change_queue_size", "Changes waiting to be published"))
	m.changeQueueCapacity = auto.NewGauge(m.gaugeOpts("change_queue_capacity", "Capacity of the change queue"))
	m.changeEnqueued = auto.NewCounter(m.counterOpts("change_enqueued_total", "Changes accepted by the queue"))
	m.changeDequeued = auto.NewCounter(m.counterOpts("change_dequeued_total", "Changes handed to publishers"))
	m.changeDropped = auto.NewCounterVec(m.counterOpts("change_dropped_total", "Changes dropped before publishing, by reason"), []string{"reason"})
	m.publishLatency = auto.NewHistogram(m.histogramOpts("publish_latency_milliseconds", "Latency of publishing one change"))
	m.publishErrors = auto.NewCounter(m.counterOpts("publish_errors_total", "Changes the publisher failed to deliver"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("publisher_workers", "Running publisher workers"))

	m.predictLatency = auto.NewHistogram(m.histogramOpts("predict_latency_milliseconds", "Latency of prediction service calls"))
	m.predictFallbacks = auto.NewCounter(m.counterOpts("predict_fallbacks_total", "Submissions graded locally because the prediction service failed"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and error type"), []string{"endpoint", "method", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "HTTP errors by error type and severity"), []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// Record store functions.

// UpdateStoreRecords sets the number of records of kind ("users", "assessments").
func UpdateStoreRecords(kind string, count int) {
	globalManager.storeRecords.WithLabelValues(kind).Set(float64(count))
}

// RecordStoreMutation counts a successful store mutation.
func RecordStoreMutation(operation string) {
	globalManager.storeMutations.WithLabelValues(operation).Inc()
}

// RecordStatusTransition counts an applied review transition.
func RecordStatusTransition(status string) {
	globalManager.statusTransitions.WithLabelValues(status).Inc()
}

// RecordStatusTransitionRejected counts a transition out of a terminal state.
func RecordStatusTransitionRejected() {
	globalManager.statusTransitionsDenied.Inc()
}

// Change stream functions.

// UpdateChangeQueueSize sets the change queue backlog.
func UpdateChangeQueueSize(size int) {
	globalManager.changeQueueSize.Set(float64(size))
}

// UpdateChangeQueueCapacity sets the change queue capacity.
func UpdateChangeQueueCapacity(capacity int) {
	globalManager.changeQueueCapacity.Set(float64(capacity))
}

// RecordChangeEnqueued increments the enqueue counter.
func RecordChangeEnqueued() {
	globalManager.changeEnqueued.Inc()
}

// RecordChangeDequeued increments the dequeue counter.
func RecordChangeDequeued() {
	globalManager.changeDequeued.Inc()
}

// RecordChangeDropped counts a change lost before publishing.
func RecordChangeDropped(reason string) {
	globalManager.changeDropped.WithLabelValues(reason).Inc()
}

// RecordPublishLatency observes the latency of one publish call.
func RecordPublishLatency(latencyMs float64) {
	globalManager.publishLatency.Observe(latencyMs)
}

// RecordPublishError counts a failed publish.
func RecordPublishError() {
	globalManager.publishErrors.Inc()
}

// UpdateWorkerCount sets the number of publisher workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// Prediction functions.

// RecordPredictLatency observes the latency of a prediction call.
func RecordPredictLatency(latencyMs float64) {
	globalManager.predictLatency.Observe(latencyMs)
}

// RecordPredictFallback counts a submission graded locally.
func RecordPredictFallback() {
	globalManager.predictFallbacks.Inc()
}

// HTTP functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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
