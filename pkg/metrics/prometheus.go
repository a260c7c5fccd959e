// Package metrics provides Prometheus metrics for the pawmatch engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Oracle failure kinds used as label values.
const (
	OracleFailureUnavailable = "unavailable"
	OracleFailureMalformed   = "malformed"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Oracle
	oracleCalls    prometheus.Counter
	oracleFailures *prometheus.CounterVec
	oracleLatency  prometheus.Histogram
	breakerState   *prometheus.GaugeVec
	breakerTrips   prometheus.Counter

	// Score cache
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheStale   prometheus.Counter
	cacheWrites  prometheus.Counter
	cacheErrors  *prometheus.CounterVec
	cacheEntries prometheus.Gauge

	// Batch scorer
	batchSize      prometheus.Histogram
	batchFallbacks prometheus.Counter
	batchDuration  prometheus.Histogram

	// Match assembler
	cyclesStarted   prometheus.Counter
	cyclesCoalesced prometheus.Counter
	cyclesDiscarded prometheus.Counter
	cycleOutcomes   *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	logicCollisions prometheus.Counter
	sessions        *prometheus.GaugeVec

	// Change events
	eventsReceived  *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventsApplied   prometheus.Counter
	eventErrors     prometheus.Counter
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	workerCount     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pawmatch",
		subsystem:        "engine",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.oracleCalls = m.counter("oracle_calls_total", "Scoring oracle calls issued")
	m.oracleFailures = m.counterVec("oracle_failures_total", "Scoring oracle failures by kind", "kind")
	m.oracleLatency = m.histogram("oracle_latency_milliseconds", "Scoring oracle call latency in milliseconds", m.histogramBuckets)
	m.breakerState = m.gaugeVec("oracle_breaker_state", "Oracle circuit breaker state (0 closed, 1 half-open, 2 open)", "name")
	m.breakerTrips = m.counter("oracle_breaker_trips_total", "Times the oracle circuit breaker opened")

	m.cacheHits = m.counter("cache_hits_total", "Score cache lookups served by a fresh entry")
	m.cacheMisses = m.counter("cache_misses_total", "Score cache lookups without an entry")
	m.cacheStale = m.counter("cache_stale_total", "Score cache entries older than the user's last preference edit")
	m.cacheWrites = m.counter("cache_writes_total", "Score cache writes")
	m.cacheErrors = m.counterVec("cache_errors_total", "Score cache backend errors", "op")
	m.cacheEntries = m.gauge("cache_entries", "Entries held by the in-process score cache")

	m.batchSize = m.histogram("batch_size", "Pets per batch scoring run", []float64{0, 1, 5, 10, 25, 50, 100, 250, 500})
	m.batchFallbacks = m.counter("batch_fallbacks_total", "Pets that received the neutral fallback score after a failed judgment")
	m.batchDuration = m.histogram("batch_duration_milliseconds", "Batch scoring duration in milliseconds", m.histogramBuckets)

	m.cyclesStarted = m.counter("cycles_started_total", "Loading cycles started")
	m.cyclesCoalesced = m.counter("cycles_coalesced_total", "Refresh requests joined to an in-flight cycle")
	m.cyclesDiscarded = m.counter("cycles_discarded_total", "Loading cycles whose results arrived stale and were dropped")
	m.cycleOutcomes = m.counterVec("cycle_outcomes_total", "Loading cycle outcomes", "outcome")
	m.cycleDuration = m.histogram("cycle_duration_milliseconds", "Loading cycle duration in milliseconds", m.histogramBuckets)
	m.logicCollisions = m.counter("logic_collisions_total", "Pets present in both the cached and the to-be-scored partitions")
	m.sessions = m.gaugeVec("sessions", "User sessions by state", "state")

	m.eventsReceived = m.counterVec("events_received_total", "Change notifications received", "kind")
	m.eventsDuplicate = m.counter("events_duplicate_total", "Change notifications dropped as duplicates")
	m.eventsApplied = m.counter("events_applied_total", "Change notifications applied by workers")
	m.eventErrors = m.counter("event_errors_total", "Change notifications that failed to apply")
	m.queueSize = m.gauge("queue_size", "Change notifications waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Change notification queue capacity")
	m.workerCount = m.gauge("worker_count", "Change notification workers")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordOracleCall counts one oracle call and its latency.
func RecordOracleCall(latencyMs float64) {
	globalManager.oracleCalls.Inc()
	globalManager.oracleLatency.Observe(latencyMs)
}

// RecordOracleFailure counts a failed judgment by kind.
func RecordOracleFailure(kind string) {
	globalManager.oracleFailures.WithLabelValues(kind).Inc()
}

// UpdateBreakerState publishes the numeric breaker state.
func UpdateBreakerState(name string, state float64) {
	globalManager.breakerState.WithLabelValues(name).Set(state)
}

// RecordBreakerTrip counts a transition into the open state.
func RecordBreakerTrip() { globalManager.breakerTrips.Inc() }

// RecordCacheHit counts a fresh cache hit.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss counts a lookup without an entry.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordCacheStale counts an entry rejected by the freshness check.
func RecordCacheStale() { globalManager.cacheStale.Inc() }

// RecordCacheWrite counts a cache write.
func RecordCacheWrite() { globalManager.cacheWrites.Inc() }

// RecordCacheError counts a backend failure for op (get, put, invalidate).
func RecordCacheError(op string) { globalManager.cacheErrors.WithLabelValues(op).Inc() }

// UpdateCacheEntries publishes the in-process cache size.
func UpdateCacheEntries(n int) { globalManager.cacheEntries.Set(float64(n)) }

// RecordBatch records one batch run.
func RecordBatch(size int, durationMs float64) {
	globalManager.batchSize.Observe(float64(size))
	globalManager.batchDuration.Observe(durationMs)
}

// RecordBatchFallback counts a neutral fallback substitution.
func RecordBatchFallback() { globalManager.batchFallbacks.Inc() }

// RecordCycleStarted counts a new loading cycle.
func RecordCycleStarted() { globalManager.cyclesStarted.Inc() }

// RecordCycleCoalesced counts a refresh joined to an in-flight cycle.
func RecordCycleCoalesced() { globalManager.cyclesCoalesced.Inc() }

// RecordCycleDiscarded counts a stale cycle result.
func RecordCycleDiscarded() { globalManager.cyclesDiscarded.Inc() }

// RecordCycleOutcome counts a finished cycle by outcome (scored, neutral, error).
func RecordCycleOutcome(outcome string, durationMs float64) {
	globalManager.cycleOutcomes.WithLabelValues(outcome).Inc()
	globalManager.cycleDuration.Observe(durationMs)
}

// RecordLogicCollision counts a partition collision.
func RecordLogicCollision() { globalManager.logicCollisions.Inc() }

// UpdateSessions publishes the number of sessions in state.
func UpdateSessions(state string, n int) {
	globalManager.sessions.WithLabelValues(state).Set(float64(n))
}

// RecordEventReceived counts an accepted change notification.
func RecordEventReceived(kind string) { globalManager.eventsReceived.WithLabelValues(kind).Inc() }

// RecordEventDuplicate counts a duplicate change notification.
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

// RecordEventApplied counts a change notification applied by a worker.
func RecordEventApplied() { globalManager.eventsApplied.Inc() }

// RecordEventError counts a change notification that failed to apply.
func RecordEventError() { globalManager.eventErrors.Inc() }

// UpdateQueueSize publishes the queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity publishes the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateWorkerCount publishes the worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordHTTPRequest counts one HTTP request with its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage publishes heap usage.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount publishes the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry backing the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
