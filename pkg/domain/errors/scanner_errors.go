package domain

import (
	"fmt"
)

// ScannerInitializationError means a scanner could not load its model or
// configuration. Fatal to that scanner only, siblings keep running.
type ScannerInitializationError struct {
	ScannerName string
	Cause       error
}

func (e *ScannerInitializationError) Error() string {
	return fmt.Sprintf("scanner '%s' failed to initialize: %v", e.ScannerName, e.Cause)
}

func (e *ScannerInitializationError) Unwrap() error {
	return e.Cause
}

func NewScannerInitializationError(scannerName string, cause error) error {
	return &ScannerInitializationError{ScannerName: scannerName, Cause: cause}
}

// ScannerTimeoutError means a scan exceeded its time budget. The scan degrades
// to an empty result, it does not abort the request.
type ScannerTimeoutError struct {
	ScannerName string
	TimeoutMs   int64
}

func (e *ScannerTimeoutError) Error() string {
	return fmt.Sprintf("scanner '%s' exceeded its %dms time budget", e.ScannerName, e.TimeoutMs)
}

func NewScannerTimeoutError(scannerName string, timeoutMs int64) error {
	return &ScannerTimeoutError{ScannerName: scannerName, TimeoutMs: timeoutMs}
}

// ScannerConfigurationError means the scanner settings are invalid.
type ScannerConfigurationError struct {
	ScannerName string
	Reason      string
}

func (e *ScannerConfigurationError) Error() string {
	return fmt.Sprintf("scanner '%s' has invalid configuration: %s", e.ScannerName, e.Reason)
}

func NewScannerConfigurationError(scannerName string, reason string) error {
	return &ScannerConfigurationError{ScannerName: scannerName, Reason: reason}
}

// SecurityServiceError wraps orchestration-level failures with enough context
// for operators to diagnose them. This is the only error type validate calls
// can return to callers.
type SecurityServiceError struct {
	Operation   string
	ScannerName string
	Cause       error
}

func (e *SecurityServiceError) Error() string {
	if e.ScannerName != "" {
		return fmt.Sprintf("security service %s failed (scanner '%s'): %v", e.Operation, e.ScannerName, e.Cause)
	}
	return fmt.Sprintf("security service %s failed: %v", e.Operation, e.Cause)
}

func (e *SecurityServiceError) Unwrap() error {
	return e.Cause
}

func NewSecurityServiceError(operation string, cause error) error {
	return &SecurityServiceError{Operation: operation, Cause: cause}
}

func NewScannerServiceError(operation, scannerName string, cause error) error {
	return &SecurityServiceError{Operation: operation, ScannerName: scannerName, Cause: cause}
}
