package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application counters for the ops endpoints.
type Metrics struct {
	RequestCount    int64
	ErrorCount      int64
	ScansStarted    int64
	ScansFailed     int64
	SummarizerCalls int64
	SummarizerFails int64
	StartTime       time.Time

	// Response time samples for percentiles (last 1000 kept).
	responseTimes      []time.Duration
	responseTimesMutex sync.RWMutex

	// Scan counts by analysis kind.
	scansByKind      map[string]int64
	scansByKindMutex sync.RWMutex
}

// NewMetrics creates a metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:     time.Now(),
		responseTimes: make([]time.Duration, 0, 1000),
		scansByKind:   make(map[string]int64),
	}
}

// IncrementRequest increments the request count.
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count.
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// RecordScan records a started scan for one analysis kind.
func (m *Metrics) RecordScan(kind string) {
	atomic.AddInt64(&m.ScansStarted, 1)
	m.scansByKindMutex.Lock()
	m.scansByKind[kind]++
	m.scansByKindMutex.Unlock()
}

// IncrementScanFailure increments the failed scan count.
func (m *Metrics) IncrementScanFailure() {
	atomic.AddInt64(&m.ScansFailed, 1)
}

// RecordSummarizerCall records a summarizer round trip.
func (m *Metrics) RecordSummarizerCall(success bool) {
	atomic.AddInt64(&m.SummarizerCalls, 1)
	if !success {
		atomic.AddInt64(&m.SummarizerFails, 1)
	}
}

// RecordResponseTime stores a response time sample.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseTimesMutex.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimesMutex.Unlock()
}

// GetPercentileResponseTime calculates a percentile over recent samples.
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.responseTimesMutex.RLock()
	defer m.responseTimesMutex.RUnlock()

	if len(m.responseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStats returns current statistics.
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	m.scansByKindMutex.RLock()
	byKind := make(map[string]int64, len(m.scansByKind))
	for k, v := range m.scansByKind {
		byKind[k] = v
	}
	m.scansByKindMutex.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"total_requests":       requests,
		"error_count":          errors,
		"error_rate_percent":   errorRate,
		"scans_started":        atomic.LoadInt64(&m.ScansStarted),
		"scans_failed":         atomic.LoadInt64(&m.ScansFailed),
		"scans_by_kind":        byKind,
		"summarizer_calls":     atomic.LoadInt64(&m.SummarizerCalls),
		"summarizer_failures":  atomic.LoadInt64(&m.SummarizerFails),
		"p50_response_time_ms": float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms": float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms": float64(m.GetPercentileResponseTime(99)) / 1e6,
		"start_time":           m.StartTime.Format(time.RFC3339),
	}
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.ScansStarted, 0)
	atomic.StoreInt64(&m.ScansFailed, 0)
	atomic.StoreInt64(&m.SummarizerCalls, 0)
	atomic.StoreInt64(&m.SummarizerFails, 0)

	m.responseTimesMutex.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseTimesMutex.Unlock()

	m.scansByKindMutex.Lock()
	m.scansByKind = make(map[string]int64)
	m.scansByKindMutex.Unlock()

	m.StartTime = time.Now()
}
