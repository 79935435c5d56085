// Package metrics provides Prometheus metrics for the attendance leaderboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace   string
	subsystem   string
	prefix      string
	buckets     []float64
	constLabels prometheus.Labels
	disabled    bool
	registry    prometheus.Registerer

	// Refresh cycle
	refreshes        *prometheus.CounterVec
	staleDiscarded   prometheus.Counter
	fetchLatency     prometheus.Histogram
	fetchErrors      *prometheus.CounterVec
	rankingLatency   prometheus.Histogram
	entriesTotal     prometheus.Gauge
	viewsPublished   prometheus.Counter
	lastRefreshUnix  prometheus.Gauge
	thresholdMarkers prometheus.Counter

	// Entry cache
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter
	cacheTerms         prometheus.Gauge

	// Board events
	eventsProcessed *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventsRejected  prometheus.Counter
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "attendboard",
		subsystem: "leaderboard",
		buckets:   DefaultLatencyBuckets,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.prefix != "" {
		return m.prefix + "_" + n
	}
	return n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
		Buckets: m.buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.refreshes = m.counterVec("refreshes_total", "Refresh cycles by outcome", "outcome")
	m.staleDiscarded = m.counter("stale_responses_discarded_total", "Fetch responses dropped because a newer fetch was issued")
	m.fetchLatency = m.histogram("fetch_latency_milliseconds", "Data source fetch latency in milliseconds")
	m.fetchErrors = m.counterVec("fetch_errors_total", "Data source fetch failures by kind", "kind")
	m.rankingLatency = m.histogram("ranking_latency_milliseconds", "Time to rank, filter and page the roster in milliseconds")
	m.entriesTotal = m.gauge("entries_total", "Entries in the currently displayed roster")
	m.viewsPublished = m.counter("views_published_total", "Views published to readers")
	m.lastRefreshUnix = m.gauge("last_refresh_unix", "Unix timestamp of the last successful refresh")
	m.thresholdMarkers = m.counter("threshold_markers_total", "Views published with a threshold marker on the current page")

	m.cacheHits = m.counter("cache_hits_total", "Entry cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Entry cache misses")
	m.cacheInvalidations = m.counter("cache_invalidations_total", "Explicit entry cache invalidations")
	m.cacheTerms = m.gauge("cache_terms", "Terms currently held in the entry cache")

	m.eventsProcessed = m.counterVec("events_processed_total", "Board events processed by kind", "kind")
	m.eventsDuplicate = m.counter("events_duplicate_total", "Duplicate board events detected")
	m.eventsRejected = m.counter("events_rejected_total", "Board events rejected as invalid or due to queue backpressure")
	m.queueSize = m.gauge("queue_size", "Current size of the board event queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the board event queue")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.buckets, ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap memory in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordRefresh counts a refresh outcome: "ok", "fetch_error", "schema_error", "config_error".
func (m *Manager) RecordRefresh(outcome string) {
	if !m.disabled {
		m.refreshes.WithLabelValues(outcome).Inc()
	}
}

// RecordStaleDiscarded counts a dropped out-of-date fetch response.
func (m *Manager) RecordStaleDiscarded() {
	if !m.disabled {
		m.staleDiscarded.Inc()
	}
}

// RecordFetchLatency observes a data source fetch.
func (m *Manager) RecordFetchLatency(latencyMs float64) {
	if !m.disabled {
		m.fetchLatency.Observe(latencyMs)
	}
}

// RecordFetchError counts a fetch failure by kind.
func (m *Manager) RecordFetchError(kind string) {
	if !m.disabled {
		m.fetchErrors.WithLabelValues(kind).Inc()
	}
}

// RecordRankingLatency observes the compose step.
func (m *Manager) RecordRankingLatency(latencyMs float64) {
	if !m.disabled {
		m.rankingLatency.Observe(latencyMs)
	}
}

// RecordViewPublished records a published view and its shape.
func (m *Manager) RecordViewPublished(entries int, marker bool) {
	if m.disabled {
		return
	}
	m.viewsPublished.Inc()
	m.entriesTotal.Set(float64(entries))
	if marker {
		m.thresholdMarkers.Inc()
	}
}

// UpdateLastRefresh stamps the last successful refresh.
func (m *Manager) UpdateLastRefresh(t time.Time) {
	if !m.disabled {
		m.lastRefreshUnix.Set(float64(t.Unix()))
	}
}

// RecordCacheHit counts an entry cache hit.
func (m *Manager) RecordCacheHit() {
	if !m.disabled {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss counts an entry cache miss.
func (m *Manager) RecordCacheMiss() {
	if !m.disabled {
		m.cacheMisses.Inc()
	}
}

// RecordCacheInvalidation counts an explicit invalidation.
func (m *Manager) RecordCacheInvalidation() {
	if !m.disabled {
		m.cacheInvalidations.Inc()
	}
}

// UpdateCacheTerms sets the number of cached terms.
func (m *Manager) UpdateCacheTerms(n int) {
	if !m.disabled {
		m.cacheTerms.Set(float64(n))
	}
}

// RecordEventProcessed counts a processed board event.
func (m *Manager) RecordEventProcessed(kind string) {
	if !m.disabled {
		m.eventsProcessed.WithLabelValues(kind).Inc()
	}
}

// RecordEventDuplicate counts a replayed event id.
func (m *Manager) RecordEventDuplicate() {
	if !m.disabled {
		m.eventsDuplicate.Inc()
	}
}

// RecordEventRejected counts an event refused by a full queue.
func (m *Manager) RecordEventRejected() {
	if !m.disabled {
		m.eventsRejected.Inc()
	}
}

// UpdateQueue sets queue size and capacity.
func (m *Manager) UpdateQueue(size, capacity int) {
	if m.disabled {
		return
	}
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
}

// RecordHTTPRequest records one HTTP request with its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if m.disabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error attributed to a component.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if !m.disabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystem sets process level gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if m.disabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}


// Global helpers operating on the process-wide manager.

func RecordRefresh(outcome string)                  { globalManager.RecordRefresh(outcome) }
func RecordStaleDiscarded()                         { globalManager.RecordStaleDiscarded() }
func RecordFetchLatency(latencyMs float64)          { globalManager.RecordFetchLatency(latencyMs) }
func RecordFetchError(kind string)                  { globalManager.RecordFetchError(kind) }
func RecordRankingLatency(latencyMs float64)        { globalManager.RecordRankingLatency(latencyMs) }
func RecordViewPublished(entries int, marker bool)  { globalManager.RecordViewPublished(entries, marker) }
func UpdateLastRefresh(t time.Time)                 { globalManager.UpdateLastRefresh(t) }
func RecordCacheHit()                               { globalManager.RecordCacheHit() }
func RecordCacheMiss()                              { globalManager.RecordCacheMiss() }
func RecordCacheInvalidation()                      { globalManager.RecordCacheInvalidation() }
func UpdateCacheTerms(n int)                        { globalManager.UpdateCacheTerms(n) }
func RecordEventProcessed(kind string)              { globalManager.RecordEventProcessed(kind) }
func RecordEventDuplicate()                         { globalManager.RecordEventDuplicate() }
func RecordEventRejected()                          { globalManager.RecordEventRejected() }
func UpdateQueue(size, capacity int)                { globalManager.UpdateQueue(size, capacity) }
func RecordErrorByComponent(component, kind string) { globalManager.RecordErrorByComponent(component, kind) }
func UpdateSystem(memBytes uint64, goroutines int)  { globalManager.UpdateSystem(memBytes, goroutines) }

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
