package types

// ViolationType is the closed set of categories a scanner can report.
type ViolationType string

const (
	// Input-side violations
	ViolationPromptInjection   ViolationType = "prompt_injection"
	ViolationMaliciousPrompt   ViolationType = "malicious_prompt"
	ViolationToxicInput        ViolationType = "toxic_input"
	ViolationPIILeakage        ViolationType = "pii_leakage"
	ViolationSuspiciousPattern ViolationType = "suspicious_pattern"

	// Output-side violations
	ViolationToxicOutput      ViolationType = "toxic_output"
	ViolationHarmfulContent   ViolationType = "harmful_content"
	ViolationBiasDetected     ViolationType = "bias_detected"
	ViolationUnethicalContent ViolationType = "unethical_content"
	ViolationPolicyViolation  ViolationType = "policy_violation"

	// System-side violations
	ViolationScanTimeout        ViolationType = "scan_timeout"
	ViolationScanError          ViolationType = "scan_error"
	ViolationServiceUnavailable ViolationType = "service_unavailable"
)

// SeverityLevel orders violations from low to critical.
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

var severityRank = map[SeverityLevel]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity, -1 for unknown values.
func (s SeverityLevel) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is as severe as other or more.
func (s SeverityLevel) AtLeast(other SeverityLevel) bool {
	return s.Rank() >= other.Rank()
}

// Direction identifies which side of the pipeline a text belongs to.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// ScannerType identifies a scanner variant.
type ScannerType string

const (
	ScannerPromptInjection ScannerType = "prompt_injection"
	ScannerToxicity        ScannerType = "toxicity"
	ScannerPII             ScannerType = "pii"
	ScannerBias            ScannerType = "bias"
)

// ScannersForDirection returns the scanner set applied to a direction, in
// dispatch order. The order is fixed so aggregated violations are deterministic.
func ScannersForDirection(direction Direction) []ScannerType {
	switch direction {
	case DirectionOutput:
		return []ScannerType{ScannerToxicity, ScannerBias, ScannerPII}
	default:
		return []ScannerType{ScannerPromptInjection, ScannerToxicity, ScannerPII}
	}
}
