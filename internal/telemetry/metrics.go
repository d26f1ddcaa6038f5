package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects runtime metrics
type Metrics struct {
	mu sync.RWMutex

	// Counters
	APIRequests       int64
	APIErrors         int64
	NamespacesQueried int64
	NamespacesFailed  int64
	RecordsFetched    int64
	SearchHits        int64

	// Histograms (simplified)
	apiLatencies []time.Duration

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		apiLatencies: make([]time.Duration, 0, 256),
	}
}

// IncAPIRequests increments the API requests counter
func (m *Metrics) IncAPIRequests() {
	atomic.AddInt64(&m.APIRequests, 1)
}

// IncAPIErrors increments the API errors counter
func (m *Metrics) IncAPIErrors() {
	atomic.AddInt64(&m.APIErrors, 1)
}

// IncNamespacesQueried increments the namespaces queried counter
func (m *Metrics) IncNamespacesQueried() {
	atomic.AddInt64(&m.NamespacesQueried, 1)
}

// IncNamespacesFailed increments the failed namespace counter
func (m *Metrics) IncNamespacesFailed() {
	atomic.AddInt64(&m.NamespacesFailed, 1)
}

// AddRecordsFetched adds n to the records fetched counter
func (m *Metrics) AddRecordsFetched(n int) {
	atomic.AddInt64(&m.RecordsFetched, int64(n))
}

// AddSearchHits adds n to the search hits counter
func (m *Metrics) AddSearchHits(n int) {
	atomic.AddInt64(&m.SearchHits, int64(n))
}

// RecordAPILatency records an API call latency
func (m *Metrics) RecordAPILatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiLatencies = append(m.apiLatencies, d)
}

// GetSummary returns a summary of collected metrics
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"api_requests":       atomic.LoadInt64(&m.APIRequests),
		"api_errors":         atomic.LoadInt64(&m.APIErrors),
		"namespaces_queried": atomic.LoadInt64(&m.NamespacesQueried),
		"namespaces_failed":  atomic.LoadInt64(&m.NamespacesFailed),
		"records_fetched":    atomic.LoadInt64(&m.RecordsFetched),
		"search_hits":        atomic.LoadInt64(&m.SearchHits),
	}

	if len(m.apiLatencies) > 0 {
		var total, slowest time.Duration
		for _, d := range m.apiLatencies {
			total += d
			if d > slowest {
				slowest = d
			}
		}
		summary["avg_api_latency_ms"] = total.Milliseconds() / int64(len(m.apiLatencies))
		summary["max_api_latency_ms"] = slowest.Milliseconds()
	}

	return summary
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.APIRequests, 0)
	atomic.StoreInt64(&m.APIErrors, 0)
	atomic.StoreInt64(&m.NamespacesQueried, 0)
	atomic.StoreInt64(&m.NamespacesFailed, 0)
	atomic.StoreInt64(&m.RecordsFetched, 0)
	atomic.StoreInt64(&m.SearchHits, 0)

	m.apiLatencies = m.apiLatencies[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}
