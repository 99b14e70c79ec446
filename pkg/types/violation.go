package types

import (
	"fmt"
	"time"
)

// Violation is a single issue detected by a scanner. Instances are built
// through NewViolation so the confidence bounds and non-empty fields hold for
// every violation in the system.
type Violation struct {
	Type        ViolationType          `json:"type"`
	Severity    SeverityLevel          `json:"severity"`
	Description string                 `json:"description"`
	Confidence  float64                `json:"confidence"`
	ScannerName string                 `json:"scanner_name"`
	TextSnippet string                 `json:"text_snippet,omitempty"`
	StartIndex  int                    `json:"start_index,omitempty"`
	EndIndex    int                    `json:"end_index,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// ViolationOption customizes optional violation fields at construction.
type ViolationOption func(*Violation)

// WithSnippet attaches the offending text span and its offsets.
func WithSnippet(snippet string, start, end int) ViolationOption {
	return func(v *Violation) {
		v.TextSnippet = snippet
		v.StartIndex = start
		v.EndIndex = end
	}
}

// WithViolationMetadata attaches scanner-specific metadata.
func WithViolationMetadata(metadata map[string]interface{}) ViolationOption {
	return func(v *Violation) {
		v.Metadata = metadata
	}
}

// NewViolation validates and builds a violation. Confidence must be within
// [0,1] and description and scanner name must be non-empty.
func NewViolation(
	violationType ViolationType,
	severity SeverityLevel,
	description string,
	confidence float64,
	scannerName string,
	opts ...ViolationOption,
) (Violation, error) {
	if confidence < 0 || confidence > 1 {
		return Violation{}, fmt.Errorf("confidence must be between 0.0 and 1.0, got %v", confidence)
	}
	if description == "" {
		return Violation{}, fmt.Errorf("violation description cannot be empty")
	}
	if scannerName == "" {
		return Violation{}, fmt.Errorf("violation scanner name cannot be empty")
	}
	if severity.Rank() < 0 {
		return Violation{}, fmt.Errorf("unknown severity level: %s", severity)
	}

	v := Violation{
		Type:        violationType,
		Severity:    severity,
		Description: description,
		Confidence:  confidence,
		ScannerName: scannerName,
		Timestamp:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&v)
	}
	return v, nil
}
