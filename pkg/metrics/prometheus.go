// Package metrics provides Prometheus metrics for the wellscreen service.
package metrics

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// scoreBuckets covers the 0-100 wellness range in deciles.
var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the wellscreen service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer
	gatherer         *prometheus.Registry

	// Screening outcomes
	submissions     prometheus.Counter
	duplicates      prometheus.Counter
	tiers           *prometheus.CounterVec
	tierRules       *prometheus.CounterVec
	emergencyFlags  prometheus.Counter
	wellnessScores  prometheus.Histogram
	pipelineLatency prometheus.Histogram

	// Persistence
	storeAppendLatency prometheus.Histogram
	storeErrors        prometheus.Counter
	storedRecords      prometheus.Gauge

	// Escalation queue and workers
	queueSize             prometheus.Gauge
	queueCapacity         prometheus.Gauge
	escalationsEnqueued   prometheus.Counter
	escalationsDropped    prometheus.Counter
	escalationsHandled    prometheus.Counter
	escalationErrors      prometheus.Counter
	workerCount           prometheus.Gauge
	workerHandlingLatency prometheus.Histogram

	// Idempotency cache
	dedupeSize prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Gauge
}

// Global metrics manager instance.
var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it before handlers capture GetRegistry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(registry))...)
	m.gatherer = registry
	globalManager.Store(m)
}

// active returns the global manager, or nil while collection is disabled.
func active() *Manager {
	m := globalManager.Load()
	if !m.enabled {
		return nil
	}
	return m
}

// RefreshInterval is how often gauge updaters should sample.
func RefreshInterval() time.Duration {
	return globalManager.Load().refreshInterval
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wellscreen",
		subsystem:        "screening",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the optional metric prefix.
func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels, Buckets: buckets,
		})
	}
	counterVec := func(name, help string, labelNames ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, labelNames)
	}

	m.submissions = counter("submissions_total", "Total number of screening submissions scored and stored")
	m.duplicates = counter("submissions_duplicate_total", "Submissions answered from the idempotency cache")
	m.tiers = counterVec("tier_total", "Scored submissions by escalation tier", "tier")
	m.tierRules = counterVec("tier_rule_total", "Scored submissions by the decision rule that fired", "rule")
	m.emergencyFlags = counter("emergency_flag_total", "Submissions carrying a caller-asserted emergency flag")
	m.wellnessScores = histogram("wellness_score", "Distribution of computed wellness scores", scoreBuckets)
	m.pipelineLatency = histogram("pipeline_latency_milliseconds", "Scoring pipeline latency in milliseconds", m.histogramBuckets)

	m.storeAppendLatency = histogram("store_append_latency_milliseconds", "Latency of record appends in milliseconds", m.histogramBuckets)
	m.storeErrors = counter("store_errors_total", "Failed record appends")
	m.storedRecords = gauge("stored_records", "Number of records held by the store")

	m.queueSize = gauge("escalation_queue_size", "Current size of the escalation queue")
	m.queueCapacity = gauge("escalation_queue_capacity", "Maximum capacity of the escalation queue")
	m.escalationsEnqueued = counter("escalations_enqueued_total", "Escalations accepted by the queue")
	m.escalationsDropped = counter("escalations_dropped_total", "Escalations rejected by a full or closed queue")
	m.escalationsHandled = counter("escalations_handled_total", "Escalations delivered by workers")
	m.escalationErrors = counter("escalation_errors_total", "Escalations whose handler failed")
	m.workerCount = gauge("escalation_worker_count", "Number of escalation workers")
	m.workerHandlingLatency = histogram("escalation_handling_latency_milliseconds", "Escalation handler latency in milliseconds", m.histogramBuckets)

	m.dedupeSize = gauge("idempotency_keys", "Idempotency keys currently cached")

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: labels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = gauge("system_gc_pause_milliseconds", "Average GC pause time in milliseconds")
}

// RecordSubmission records one scored and stored submission.
func RecordSubmission(tier int, rule string, wellness int, emergency bool) {
	m := active()
	if m == nil {
		return
	}
	m.submissions.Inc()
	m.tiers.WithLabelValues(strconv.Itoa(tier)).Inc()
	m.tierRules.WithLabelValues(rule).Inc()
	m.wellnessScores.Observe(float64(wellness))
	if emergency {
		m.emergencyFlags.Inc()
	}
}

// RecordDuplicate increments the idempotent replay counter.
func RecordDuplicate() {
	m := active()
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

// RecordPipelineLatency records scoring pipeline latency in milliseconds.
func RecordPipelineLatency(latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.pipelineLatency.Observe(latencyMs)
}

// RecordStoreAppendLatency records record append latency in milliseconds.
func RecordStoreAppendLatency(latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.storeAppendLatency.Observe(latencyMs)
}

// RecordStoreError increments the store error counter.
func RecordStoreError() {
	m := active()
	if m == nil {
		return
	}
	m.storeErrors.Inc()
}

// UpdateStoredRecords sets the number of stored records.
func UpdateStoredRecords(count int) {
	m := active()
	if m == nil {
		return
	}
	m.storedRecords.Set(float64(count))
}

// UpdateQueueSize sets the current escalation queue size.
func UpdateQueueSize(size int) {
	m := active()
	if m == nil {
		return
	}
	m.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the escalation queue capacity.
func UpdateQueueCapacity(capacity int) {
	m := active()
	if m == nil {
		return
	}
	m.queueCapacity.Set(float64(capacity))
}

// RecordEscalationEnqueued increments the accepted escalations counter.
func RecordEscalationEnqueued() {
	m := active()
	if m == nil {
		return
	}
	m.escalationsEnqueued.Inc()
}

// RecordEscalationDropped increments the rejected escalations counter.
func RecordEscalationDropped() {
	m := active()
	if m == nil {
		return
	}
	m.escalationsDropped.Inc()
}

// RecordEscalationHandled records a delivered escalation and its latency.
func RecordEscalationHandled(latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.escalationsHandled.Inc()
	m.workerHandlingLatency.Observe(latencyMs)
}

// RecordEscalationError increments the handler failure counter.
func RecordEscalationError() {
	m := active()
	if m == nil {
		return
	}
	m.escalationErrors.Inc()
}

// UpdateWorkerCount sets the escalation worker count.
func UpdateWorkerCount(count int) {
	m := active()
	if m == nil {
		return
	}
	m.workerCount.Set(float64(count))
}

// UpdateDedupeSize sets the number of cached idempotency keys.
func UpdateDedupeSize(size int64) {
	m := active()
	if m == nil {
		return
	}
	m.dedupeSize.Set(float64(size))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	m := active()
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	m := active()
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	m := active()
	if m == nil {
		return
	}
	m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	m := active()
	if m == nil {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	m := active()
	if m == nil {
		return
	}
	m.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	m := active()
	if m == nil {
		return
	}
	m.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime sets the average GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.systemGCPauseTime.Set(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return globalManager.Load().gatherer
}
