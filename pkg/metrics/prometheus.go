package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Simulation modes used as the "mode" label.
const (
	ModeSingle = "single"
	ModeBatch  = "batch"
)

// Manager manages all Prometheus metrics for the pitwall service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Simulation metrics
	simulations       *prometheus.CounterVec
	simulationErrors  *prometheus.CounterVec
	simulationLatency prometheus.Histogram
	batchSize         prometheus.Histogram
	participants      prometheus.Gauge
	storedRuns        prometheus.Gauge

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount   prometheus.Gauge
	workerActive  prometheus.Gauge
	workerJobs    prometheus.Counter
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
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
		namespace:        "pitwall",
		subsystem:        "simulator",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.simulations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulations_total",
		Help:      "Total number of completed simulations by mode",
	}, []string{"mode"})

	m.simulationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_errors_total",
		Help:      "Total number of failed simulations by error kind",
	}, []string{"kind"})

	m.simulationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_latency_milliseconds",
		Help:      "Wall time of a single simulation run in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_size",
		Help:      "Number of runs requested per batch",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.participants = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants",
		Help:      "Number of registered participants",
	})

	m.storedRuns = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stored_runs",
		Help:      "Number of runs held by the run store",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of jobs waiting in the queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueue = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of jobs enqueued",
	})

	m.queueDequeue = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of jobs dequeued",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of jobs rejected by a full queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of simulation workers",
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of workers currently running a job",
	})

	m.workerJobs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_jobs_total",
		Help:      "Total number of jobs processed by workers",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Worker job processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of jobs that ended in an error",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Heap memory in use in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Garbage collection pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordSimulation counts a completed simulation in the given mode.
func (m *Manager) RecordSimulation(mode string) {
	if m.enabled {
		m.simulations.WithLabelValues(mode).Inc()
	}
}

// RecordSimulationError counts a failed simulation by error kind.
func (m *Manager) RecordSimulationError(kind string) {
	if m.enabled {
		m.simulationErrors.WithLabelValues(kind).Inc()
	}
}

// RecordSimulationLatency records a single run's wall time in milliseconds.
func (m *Manager) RecordSimulationLatency(latencyMs float64) {
	if m.enabled {
		m.simulationLatency.Observe(latencyMs)
	}
}

// RecordBatchSize records how many runs a batch requested.
func (m *Manager) RecordBatchSize(runs int) {
	if m.enabled {
		m.batchSize.Observe(float64(runs))
	}
}

// UpdateParticipants sets the registered participant gauge.
func (m *Manager) UpdateParticipants(count int) {
	if m.enabled {
		m.participants.Set(float64(count))
	}
}

// UpdateStoredRuns sets the stored runs gauge.
func (m *Manager) UpdateStoredRuns(count int) {
	if m.enabled {
		m.storedRuns.Set(float64(count))
	}
}

// UpdateQueue sets queue size, capacity and utilization in one call.
func (m *Manager) UpdateQueue(size, capacity int) {
	if !m.enabled {
		return
	}
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue counts an accepted job.
func (m *Manager) RecordQueueEnqueue() {
	if m.enabled {
		m.queueEnqueue.Inc()
	}
}

// RecordQueueDequeue counts a job handed to a worker.
func (m *Manager) RecordQueueDequeue() {
	if m.enabled {
		m.queueDequeue.Inc()
	}
}

// RecordQueueEnqueueError counts a job rejected by backpressure.
func (m *Manager) RecordQueueEnqueueError() {
	if m.enabled {
		m.queueEnqueueErrors.Inc()
	}
}

// UpdateWorkerCount sets the worker count gauge.
func (m *Manager) UpdateWorkerCount(count int) {
	if m.enabled {
		m.workerCount.Set(float64(count))
	}
}

// WorkerStarted marks a worker busy.
func (m *Manager) WorkerStarted() {
	if m.enabled {
		m.workerActive.Inc()
	}
}

// WorkerFinished marks a worker idle and records the job.
func (m *Manager) WorkerFinished(latencyMs float64, failed bool) {
	if !m.enabled {
		return
	}
	m.workerActive.Dec()
	m.workerJobs.Inc()
	m.workerLatency.Observe(latencyMs)
	if failed {
		m.workerErrors.Inc()
	}
}

// RecordHTTPRequest counts an HTTP request and observes its duration in seconds.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, duration float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystem sets memory and goroutine gauges.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordGCPause records a GC pause in milliseconds.
func (m *Manager) RecordGCPause(pauseMs float64) {
	if m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// RecordSimulation counts a completed simulation on the global manager.
func RecordSimulation(mode string) {
	globalManager.RecordSimulation(mode)
}

// RecordSimulationError counts a failed simulation by kind.
func RecordSimulationError(kind string) {
	globalManager.RecordSimulationError(kind)
}

// RecordSimulationLatency records a run's wall time in milliseconds.
func RecordSimulationLatency(latencyMs float64) {
	globalManager.RecordSimulationLatency(latencyMs)
}

// RecordBatchSize records the runs requested by a batch.
func RecordBatchSize(runs int) {
	globalManager.RecordBatchSize(runs)
}

// UpdateParticipants sets the participant gauge.
func UpdateParticipants(count int) {
	globalManager.UpdateParticipants(count)
}

// UpdateStoredRuns sets the stored runs gauge.
func UpdateStoredRuns(count int) {
	globalManager.UpdateStoredRuns(count)
}

// UpdateQueue sets queue size, capacity and utilization.
func UpdateQueue(size, capacity int) {
	globalManager.UpdateQueue(size, capacity)
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.RecordQueueEnqueue()
}

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() {
	globalManager.RecordQueueDequeue()
}

// RecordQueueEnqueueError counts a job rejected by backpressure.
func RecordQueueEnqueueError() {
	globalManager.RecordQueueEnqueueError()
}

// UpdateWorkerCount sets the worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.UpdateWorkerCount(count)
}

// WorkerStarted marks a worker busy.
func WorkerStarted() {
	globalManager.WorkerStarted()
}

// WorkerFinished marks a worker idle and records the job.
func WorkerFinished(latencyMs float64, failed bool) {
	globalManager.WorkerFinished(latencyMs, failed)
}

// RecordHTTPRequest counts an HTTP request and observes its duration in seconds.
func RecordHTTPRequest(endpoint, method, statusCode string, duration float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, duration)
}

// UpdateSystem sets memory and goroutine gauges.
func UpdateSystem(memoryBytes uint64, goroutines int) {
	globalManager.UpdateSystem(memoryBytes, goroutines)
}

// RecordGCPause records a GC pause in milliseconds.
func RecordGCPause(pauseMs float64) {
	globalManager.RecordGCPause(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
