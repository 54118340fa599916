package metrics

import (
	"sync"
	"time"
)

// MetricsCollector provides a centralized way to collect and retrieve metrics
type MetricsCollector struct {
	mutex               sync.RWMutex
	counters            map[string]int64
	gauges              map[string]float64
	requestCounts       map[string]int64
	requestLatencies    map[string][]time.Duration
	ingestCounts        map[string]int64
	ingestLatencies     map[string][]time.Duration
	databaseQueryCounts map[string]int64
	databaseLatencies   map[string][]time.Duration
	messageBusCounts    map[string]int64
	errorCounts         map[string]int64
	startTime           time.Time
	maxHistogramSamples int
}

// Counter metrics
const (
	CounterHTTPRequests        = "http_requests_total"
	CounterHTTPRequestsSuccess = "http_requests_success_total"
	CounterHTTPRequestsError   = "http_requests_error_total"
	CounterReadingsIngested    = "readings_ingested_total"
	CounterReadingsFailed      = "readings_failed_total"
	CounterIrrigationTriggers  = "irrigation_triggers_total"
	CounterPumpTriggers        = "pump_triggers_total"
	CounterCommandsEnqueued    = "commands_enqueued_total"
	CounterCommandsDequeued    = "commands_dequeued_total"
	CounterCommandsExecuted    = "commands_executed_total"
	CounterCommandsRequeued    = "commands_requeued_total"
	CounterCommandsExpired     = "commands_expired_total"
	CounterEquipmentSwept      = "equipment_swept_offline_total"
	CounterCacheHits           = "cache_hits_total"
	CounterCacheMisses         = "cache_misses_total"
	CounterIndexSuccess        = "readings_indexed_total"
	CounterIndexFailed         = "readings_index_failed_total"
	CounterIndexDropped        = "readings_index_dropped_total"
	CounterMessagesSent        = "messages_sent_total"
	CounterMessagesError       = "messages_error_total"
	CounterDBQueriesTotal      = "db_queries_total"
	CounterDBQueriesError      = "db_queries_error_total"
	CounterErrorsTotal         = "errors_total"
)

// Gauge metrics
const (
	GaugeIndexerQueueDepth = "indexer_queue_depth"
	GaugeQueuedCommands    = "queued_commands"
)

// Database query types
const (
	DBQueryTypeSelect = "select"
	DBQueryTypeInsert = "insert"
	DBQueryTypeUpdate = "update"
	DBQueryTypeDelete = "delete"
)

// Command lifecycle operations
const (
	CommandOpEnqueue = "enqueue"
	CommandOpDequeue = "dequeue"
	CommandOpExecute = "execute"
	CommandOpRequeue = "requeue"
	CommandOpExpire  = "expire"
)

// Error types
const (
	ErrorTypeHTTP       = "http"
	ErrorTypeValidation = "validation"
	ErrorTypeDatabase   = "database"
	ErrorTypeMessageBus = "message_bus"
	ErrorTypeSearch     = "search"
	ErrorTypeInternal   = "internal"
)

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:            make(map[string]int64),
		gauges:              make(map[string]float64),
		requestCounts:       make(map[string]int64),
		requestLatencies:    make(map[string][]time.Duration),
		ingestCounts:        make(map[string]int64),
		ingestLatencies:     make(map[string][]time.Duration),
		databaseQueryCounts: make(map[string]int64),
		databaseLatencies:   make(map[string][]time.Duration),
		messageBusCounts:    make(map[string]int64),
		errorCounts:         make(map[string]int64),
		startTime:           time.Now(),
		maxHistogramSamples: 1000,
	}
}

// IncrementCounter increments a counter by the given value
func (m *MetricsCollector) IncrementCounter(name string, value int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[name] += value
}

// SetGauge sets a gauge to the given value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.gauges[name] = value
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *MetricsCollector) RecordHTTPRequest(path string, statusCode int, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[CounterHTTPRequests]++
	m.requestCounts[path]++
	m.requestLatencies[path] = appendSample(m.requestLatencies[path], latency, m.maxHistogramSamples)

	if statusCode >= 200 && statusCode < 400 {
		m.counters[CounterHTTPRequestsSuccess]++
	} else {
		m.counters[CounterHTTPRequestsError]++
		m.errorCounts[ErrorTypeHTTP]++
	}
}

// RecordIngestion records the outcome of processing one sensor class within
// an ingestion request
func (m *MetricsCollector) RecordIngestion(class string, success bool, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.ingestCounts[class]++
	m.ingestLatencies[class] = appendSample(m.ingestLatencies[class], latency, m.maxHistogramSamples)

	if success {
		m.counters[CounterReadingsIngested]++
	} else {
		m.counters[CounterReadingsFailed]++
	}
}

// RecordDecision records a fired actuation decision for the given target
func (m *MetricsCollector) RecordDecision(target string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch target {
	case "irrigation":
		m.counters[CounterIrrigationTriggers]++
	default:
		m.counters[CounterPumpTriggers]++
	}
}

// RecordCommand records a command queue lifecycle operation
func (m *MetricsCollector) RecordCommand(op string, count int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch op {
	case CommandOpEnqueue:
		m.counters[CounterCommandsEnqueued] += count
	case CommandOpDequeue:
		m.counters[CounterCommandsDequeued] += count
	case CommandOpExecute:
		m.counters[CounterCommandsExecuted] += count
	case CommandOpRequeue:
		m.counters[CounterCommandsRequeued] += count
	case CommandOpExpire:
		m.counters[CounterCommandsExpired] += count
	}
}

// RecordSweep records equipment records forced offline by a sweeper pass
func (m *MetricsCollector) RecordSweep(forcedOffline int64) {
	m.IncrementCounter(CounterEquipmentSwept, forcedOffline)
}

// RecordCacheLookup records a cache hit or miss
func (m *MetricsCollector) RecordCacheLookup(hit bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if hit {
		m.counters[CounterCacheHits]++
	} else {
		m.counters[CounterCacheMisses]++
	}
}

// RecordIndexing records the outcome of an async reading index job.
// Dropped jobs (queue full) are counted separately from failed ones.
func (m *MetricsCollector) RecordIndexing(success bool, dropped bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch {
	case dropped:
		m.counters[CounterIndexDropped]++
	case success:
		m.counters[CounterIndexSuccess]++
	default:
		m.counters[CounterIndexFailed]++
		m.errorCounts[ErrorTypeSearch]++
	}
}

// RecordMessageBusSend records a message bus publish attempt
func (m *MetricsCollector) RecordMessageBusSend(messageType string, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.messageBusCounts[messageType]++
	m.counters[CounterMessagesSent]++
	if !success {
		m.counters[CounterMessagesError]++
		m.errorCounts[ErrorTypeMessageBus]++
	}
}

// RecordDatabaseQuery records metrics for a database query
func (m *MetricsCollector) RecordDatabaseQuery(queryType string, success bool, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.databaseQueryCounts[queryType]++
	m.counters[CounterDBQueriesTotal]++

	if !success {
		m.counters[CounterDBQueriesError]++
		m.errorCounts[ErrorTypeDatabase]++
	}

	m.databaseLatencies[queryType] = appendSample(m.databaseLatencies[queryType], latency, m.maxHistogramSamples)
}

// RecordError records an error of the given type
func (m *MetricsCollector) RecordError(errorType string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.errorCounts[errorType]++
	m.counters[CounterErrorsTotal]++
}

// SetIndexerQueueDepth sets the current depth of the indexer job queue
func (m *MetricsCollector) SetIndexerQueueDepth(depth int) {
	m.SetGauge(GaugeIndexerQueueDepth, float64(depth))
}

// SetQueuedCommands sets the current number of queued commands
func (m *MetricsCollector) SetQueuedCommands(count int64) {
	m.SetGauge(GaugeQueuedCommands, float64(count))
}

// GetMetrics returns all collected metrics in a structured format
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	uptime := time.Since(m.startTime)

	return map[string]interface{}{
		"uptime_seconds":        uptime.Seconds(),
		"counters":              m.counters,
		"gauges":                m.gauges,
		"request_counts":        m.requestCounts,
		"request_latencies_ms":  averageLatencies(m.requestLatencies),
		"ingest_counts":         m.ingestCounts,
		"ingest_latencies_ms":   averageLatencies(m.ingestLatencies),
		"database_query_counts": m.databaseQueryCounts,
		"database_latencies_ms": averageLatencies(m.databaseLatencies),
		"message_bus_counts":    m.messageBusCounts,
		"error_counts":          m.errorCounts,
	}
}

// GetHealthStatus returns a simple health status based on metrics
func (m *MetricsCollector) GetHealthStatus() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	healthy := true

	errorRate := 0.0
	totalRequests := m.counters[CounterHTTPRequests]
	if totalRequests > 0 {
		errorRate = float64(m.counters[CounterHTTPRequestsError]) / float64(totalRequests)
	}

	// 5% error rate is considered unhealthy
	const errorRateThreshold = 0.05

	if errorRate > errorRateThreshold {
		healthy = false
	}

	uptime := time.Since(m.startTime)

	return map[string]interface{}{
		"status": map[string]interface{}{
			"healthy":        healthy,
			"uptime_seconds": uptime.Seconds(),
		},
		"metrics": map[string]interface{}{
			"total_requests":    totalRequests,
			"error_rate":        errorRate,
			"readings_ingested": m.counters[CounterReadingsIngested],
			"readings_failed":   m.counters[CounterReadingsFailed],
			"commands_dequeued": m.counters[CounterCommandsDequeued],
			"equipment_swept":   m.counters[CounterEquipmentSwept],
		},
	}
}

func appendSample(samples []time.Duration, value time.Duration, max int) []time.Duration {
	if samples == nil {
		samples = make([]time.Duration, 0, max)
	}
	if len(samples) >= max {
		// Remove the oldest sample
		samples = samples[1:]
	}
	return append(samples, value)
}

func averageLatencies(byKey map[string][]time.Duration) map[string]float64 {
	averages := make(map[string]float64)
	for key, latencies := range byKey {
		if len(latencies) == 0 {
			continue
		}
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		averages[key] = float64(sum.Milliseconds()) / float64(len(latencies))
	}
	return averages
}

// Global metrics collector instance
var globalCollector *MetricsCollector
var once sync.Once

// GetMetricsCollector returns the global metrics collector instance
func GetMetricsCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = NewMetricsCollector()
	})
	return globalCollector
}
