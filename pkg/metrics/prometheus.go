// Package metrics provides Prometheus metrics for the venuedraw service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Winner selection
	winnersSelected  *prometheus.CounterVec
	winnerConflicts  *prometheus.CounterVec
	winnerDrawRetry  prometheus.Counter
	selectionLatency prometheus.Histogram

	// Display lifecycle
	deviceCodesIssued     prometheus.Counter
	displayAuthorizations *prometheus.CounterVec
	displayHeartbeats     *prometheus.CounterVec
	displayRevocations    prometheus.Counter
	displaysByLiveness    *prometheus.GaugeVec

	// Broadcast fan-out
	broadcasts           *prometheus.CounterVec
	broadcastDeliveries  prometheus.Counter
	broadcastDropped     prometheus.Counter
	broadcastSubscribers prometheus.Gauge

	// Photo moderation
	photoChanges *prometheus.CounterVec

	// Outbox queue feeding the MQTT bridge
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	bridgePublishes    *prometheus.CounterVec
	bridgeLatency      prometheus.Histogram
	publisherCount     prometheus.Gauge

	// Store
	storeQueryLatency *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec

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

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "venuedraw",
		subsystem:        "core",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
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

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.winnersSelected = m.counterVec("winners_selected_total", "Winners recorded, by selection method", "method")
	m.winnerConflicts = m.counterVec("winner_conflicts_total", "Selections rejected as conflicts, by reason", "reason")
	m.winnerDrawRetry = m.counter("winner_draw_retries_total", "Random draws repeated after losing a uniqueness race")
	m.selectionLatency = m.histogram("winner_selection_latency_milliseconds", "End-to-end winner selection latency", m.histogramBuckets)

	m.deviceCodesIssued = m.counter("device_codes_issued_total", "Display pairing codes generated")
	m.displayAuthorizations = m.counterVec("display_authorizations_total", "Display authorization attempts, by result", "result")
	m.displayHeartbeats = m.counterVec("display_heartbeats_total", "Display heartbeats, by result", "result")
	m.displayRevocations = m.counter("display_revocations_total", "Display sessions revoked")
	m.displaysByLiveness = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("displays_by_liveness"),
		Help: "Live display sessions by liveness classification", ConstLabels: m.customLabels,
	}, []string{"status"})

	m.broadcasts = m.counterVec("broadcasts_total", "Messages published to display channels, by channel", "channel")
	m.broadcastDeliveries = m.counter("broadcast_deliveries_total", "Messages handed to subscribers")
	m.broadcastDropped = m.counter("broadcast_dropped_total", "Messages dropped because a subscriber was slow")
	m.broadcastSubscribers = m.gauge("broadcast_subscribers", "Open display stream subscriptions")

	m.photoChanges = m.counterVec("photo_changes_total", "Photo feed changes, by type", "type")

	m.queueSize = m.gauge("outbox_queue_size", "Envelopes waiting for the MQTT bridge")
	m.queueCapacity = m.gauge("outbox_queue_capacity", "Capacity of the outbox queue")
	m.queueUtilization = m.gauge("outbox_queue_utilization_ratio", "Outbox queue fill ratio (0-1)")
	m.queueEnqueueRate = m.counter("outbox_enqueue_total", "Envelopes enqueued for the MQTT bridge")
	m.queueDequeueRate = m.counter("outbox_dequeue_total", "Envelopes taken by publishers")
	m.queueEnqueueErrors = m.counter("outbox_enqueue_errors_total", "Envelopes rejected by the outbox queue")
	m.bridgePublishes = m.counterVec("bridge_publishes_total", "MQTT bridge publish attempts, by result", "result")
	m.bridgeLatency = m.histogram("bridge_publish_latency_milliseconds", "MQTT publish latency", m.histogramBuckets)
	m.publisherCount = m.gauge("bridge_publishers", "Running MQTT bridge publishers")

	m.storeQueryLatency = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("store_query_latency_milliseconds"),
		Help: "Store operation latency", Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	}, []string{"op"})
	m.storeErrors = m.counterVec("store_errors_total", "Store operation failures", "op")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordWinnerSelected counts a recorded winner for the given method.
func RecordWinnerSelected(method string) {
	globalManager.winnersSelected.WithLabelValues(method).Inc()
}

// RecordWinnerConflict counts a rejected selection.
func RecordWinnerConflict(reason string) {
	globalManager.winnerConflicts.WithLabelValues(reason).Inc()
}

// RecordWinnerDrawRetry counts a random draw repeated after a uniqueness race.
func RecordWinnerDrawRetry() {
	globalManager.winnerDrawRetry.Inc()
}

// RecordSelectionLatency records selection latency in milliseconds.
func RecordSelectionLatency(latencyMs float64) {
	globalManager.selectionLatency.Observe(latencyMs)
}

// RecordDeviceCodeIssued counts a generated pairing code.
func RecordDeviceCodeIssued() {
	globalManager.deviceCodesIssued.Inc()
}

// RecordDisplayAuthorization counts an authorization attempt.
func RecordDisplayAuthorization(result string) {
	globalManager.displayAuthorizations.WithLabelValues(result).Inc()
}

// RecordDisplayHeartbeat counts a heartbeat.
func RecordDisplayHeartbeat(result string) {
	globalManager.displayHeartbeats.WithLabelValues(result).Inc()
}

// RecordDisplayRevocation counts a revoked session.
func RecordDisplayRevocation() {
	globalManager.displayRevocations.Inc()
}

// UpdateDisplaysByLiveness sets the live display count for a classification.
func UpdateDisplaysByLiveness(status string, count int) {
	globalManager.displaysByLiveness.WithLabelValues(status).Set(float64(count))
}

// RecordBroadcast counts a published message and its fan-out result.
func RecordBroadcast(channel string, delivered, dropped int) {
	globalManager.broadcasts.WithLabelValues(channel).Inc()
	globalManager.broadcastDeliveries.Add(float64(delivered))
	globalManager.broadcastDropped.Add(float64(dropped))
}

// UpdateBroadcastSubscribers sets the number of open subscriptions.
func UpdateBroadcastSubscribers(count int) {
	globalManager.broadcastSubscribers.Set(float64(count))
}

// RecordPhotoChange counts a photo feed change.
func RecordPhotoChange(changeType string) {
	globalManager.photoChanges.WithLabelValues(changeType).Inc()
}

// UpdateQueueSize updates the outbox queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity updates the outbox queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization updates the outbox queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an enqueued envelope.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue counts a dequeued envelope.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError counts a rejected envelope.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordBridgePublish counts an MQTT publish attempt.
func RecordBridgePublish(result string, latencyMs float64) {
	globalManager.bridgePublishes.WithLabelValues(result).Inc()
	globalManager.bridgeLatency.Observe(latencyMs)
}

// UpdatePublisherCount sets the number of running bridge publishers.
func UpdatePublisherCount(count int) {
	globalManager.publisherCount.Set(float64(count))
}

// RecordStoreLatency records store operation latency in milliseconds.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage updates the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval reports how often gauge refreshers should run.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
