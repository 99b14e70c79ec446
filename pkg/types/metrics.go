package types

import (
	"sync"
	"time"
)

// ScanMetrics holds running counters for one scan direction. All updates go
// through Record under an internal lock, many scans mutate it concurrently.
type ScanMetrics struct {
	mu sync.Mutex

	scanCount          int64
	totalTimeMs        float64
	successfulScans    int64
	failedScans        int64
	violationsDetected int64
}

// NewScanMetrics returns an empty metrics accumulator.
func NewScanMetrics() *ScanMetrics {
	return &ScanMetrics{}
}

// Record folds one completed scan into the counters.
func (m *ScanMetrics) Record(durationMs float64, violations int, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scanCount++
	m.totalTimeMs += durationMs
	if success {
		m.successfulScans++
	} else {
		m.failedScans++
	}
	m.violationsDetected += int64(violations)
}

// Reset zeroes all counters.
func (m *ScanMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scanCount = 0
	m.totalTimeMs = 0
	m.successfulScans = 0
	m.failedScans = 0
	m.violationsDetected = 0
}

// Snapshot returns a point-in-time copy of the counters.
func (m *ScanMetrics) Snapshot() ScanMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	avg := 0.0
	if m.scanCount > 0 {
		avg = m.totalTimeMs / float64(m.scanCount)
	}
	return ScanMetricsSnapshot{
		ScanCount:          m.scanCount,
		TotalTimeMs:        m.totalTimeMs,
		SuccessfulScans:    m.successfulScans,
		FailedScans:        m.failedScans,
		ViolationsDetected: m.violationsDetected,
		AverageDurationMs:  avg,
	}
}

// ScanMetricsSnapshot is an immutable view of ScanMetrics.
type ScanMetricsSnapshot struct {
	ScanCount          int64   `json:"scan_count"`
	TotalTimeMs        float64 `json:"total_time_ms"`
	SuccessfulScans    int64   `json:"successful_scans"`
	FailedScans        int64   `json:"failed_scans"`
	ViolationsDetected int64   `json:"violations_detected"`
	AverageDurationMs  float64 `json:"average_duration_ms"`
}

// MetricsSnapshot combines both directions with scanner and system health.
type MetricsSnapshot struct {
	Input         ScanMetricsSnapshot `json:"input"`
	Output        ScanMetricsSnapshot `json:"output"`
	ScannerHealth map[string]bool     `json:"scanner_health"`
	Healthy       bool                `json:"healthy"`
	UptimeSeconds float64             `json:"uptime_seconds"`
	MemoryUsageMB float64             `json:"memory_usage_mb"`
	Timestamp     time.Time           `json:"timestamp"`
}
