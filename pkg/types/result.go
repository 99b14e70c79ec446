package types

import (
	"time"

	"github.com/google/uuid"
)

// ScannerResult records the outcome of one scanner within a scan.
type ScannerResult struct {
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
	DurationMs     float64 `json:"duration_ms"`
	ViolationCount int     `json:"violation_count"`
}

// SecurityResult is the aggregated outcome of scanning one text in one
// direction. IsSafe is derived from the violation list and self-corrected by
// Normalize, it is never trusted from external input.
type SecurityResult struct {
	ID             string                   `json:"id"`
	IsSafe         bool                     `json:"is_safe"`
	Violations     []Violation              `json:"violations"`
	Score          float64                  `json:"score"`
	ScannedText    string                   `json:"scanned_text"`
	ScanDurationMs float64                  `json:"scan_duration_ms"`
	ScannerResults map[string]ScannerResult `json:"scanner_results,omitempty"`
	Metadata       map[string]interface{}   `json:"metadata,omitempty"`
	Timestamp      time.Time                `json:"timestamp"`
}

// NewSecurityResult builds a result with IsSafe derived from violations.
func NewSecurityResult(
	violations []Violation,
	score float64,
	scannedText string,
	scanDurationMs float64,
	scannerResults map[string]ScannerResult,
	metadata map[string]interface{},
) *SecurityResult {
	if violations == nil {
		violations = []Violation{}
	}
	r := &SecurityResult{
		ID:             uuid.NewString(),
		Violations:     violations,
		Score:          score,
		ScannedText:    scannedText,
		ScanDurationMs: scanDurationMs,
		ScannerResults: scannerResults,
		Metadata:       metadata,
		Timestamp:      time.Now().UTC(),
	}
	r.Normalize()
	return r
}

// Normalize re-derives IsSafe from the violation list and clamps the duration.
// Called at construction and after deserializing a cached result.
func (r *SecurityResult) Normalize() {
	r.IsSafe = len(r.Violations) == 0
	if r.ScanDurationMs < 0 {
		r.ScanDurationMs = 0
	}
}

// ViolationsBySeverity groups the violations by severity level.
func (r *SecurityResult) ViolationsBySeverity() map[SeverityLevel][]Violation {
	grouped := make(map[SeverityLevel][]Violation)
	for _, v := range r.Violations {
		grouped[v.Severity] = append(grouped[v.Severity], v)
	}
	return grouped
}

// ViolationsByType groups the violations by violation type.
func (r *SecurityResult) ViolationsByType() map[ViolationType][]Violation {
	grouped := make(map[ViolationType][]Violation)
	for _, v := range r.Violations {
		grouped[v.Type] = append(grouped[v.Type], v)
	}
	return grouped
}

// HasCriticalViolations reports whether any violation is critical.
func (r *SecurityResult) HasCriticalViolations() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// HasHighSeverityViolations reports whether any violation is high or critical.
func (r *SecurityResult) HasHighSeverityViolations() bool {
	for _, v := range r.Violations {
		if v.Severity.AtLeast(SeverityHigh) {
			return true
		}
	}
	return false
}
