package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates per-operation counters for the bridge services.
// Operations are dotted names such as "preferences.get" or
// "notifications.send".
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	eventsPushed  atomic.Int64

	operationMetrics map[string]*OperationMetrics
}

// OperationMetrics holds counters for a single bridge operation.
type OperationMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // milliseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		operationMetrics: make(map[string]*OperationMetrics),
	}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a request for the given operation.
func (m *Metrics) RecordRequest(operation string) {
	m.requestTotal.Add(1)
	m.getOperationMetrics(operation).executionCount.Add(1)
}

// RecordFailure records a failed request for the given operation.
func (m *Metrics) RecordFailure(operation string) {
	m.requestFailed.Add(1)
	m.getOperationMetrics(operation).errorCount.Add(1)
}

// RecordDuration records a request duration for the given operation.
func (m *Metrics) RecordDuration(operation string, duration time.Duration) {
	m.getOperationMetrics(operation).totalDuration.Add(duration.Milliseconds())
}

// RecordEventPushed records one realtime event delivered to a subscriber.
func (m *Metrics) RecordEventPushed() {
	m.eventsPushed.Add(1)
}

// GetRequestTotal returns the total number of requests.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// GetRequestFailed returns the total number of failed requests.
func (m *Metrics) GetRequestFailed() int64 {
	return m.requestFailed.Load()
}

// GetEventsPushed returns the total number of realtime events delivered.
func (m *Metrics) GetEventsPushed() int64 {
	return m.eventsPushed.Load()
}

// GetAverageDuration returns the average duration in milliseconds for
// an operation, or 0 when the operation has not been recorded.
func (m *Metrics) GetAverageDuration(operation string) int64 {
	om := m.getOperationMetrics(operation)
	count := om.executionCount.Load()
	if count == 0 {
		return 0
	}
	return om.totalDuration.Load() / count
}

func (m *Metrics) getOperationMetrics(operation string) *OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	om, ok := m.operationMetrics[operation]
	if !ok {
		om = &OperationMetrics{}
		m.operationMetrics[operation] = om
	}
	return om
}

// Reset clears all counters. Useful in tests.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.eventsPushed.Store(0)

	m.mu.Lock()
	m.operationMetrics = make(map[string]*OperationMetrics)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time view of all counters.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	operations := make(map[string]*OperationMetricsSnapshot, len(m.operationMetrics))
	for name, om := range m.operationMetrics {
		count := om.executionCount.Load()
		snapshot := &OperationMetricsSnapshot{
			ExecutionCount: count,
			TotalDuration:  om.totalDuration.Load(),
			ErrorCount:     om.errorCount.Load(),
		}
		if count > 0 {
			snapshot.AverageDuration = snapshot.TotalDuration / count
		}
		operations[name] = snapshot
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		EventsPushed:  m.eventsPushed.Load(),
		Operations:    operations,
	}
}

// MetricsSnapshot is a point-in-time snapshot of all counters.
type MetricsSnapshot struct {
	RequestTotal  int64
	RequestFailed int64
	EventsPushed  int64
	Operations    map[string]*OperationMetricsSnapshot
}

// OperationMetricsSnapshot holds counters for one operation.
type OperationMetricsSnapshot struct {
	ExecutionCount  int64
	TotalDuration   int64
	ErrorCount      int64
	AverageDuration int64
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
