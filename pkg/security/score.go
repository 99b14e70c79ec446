package security

import (
	"math"

	"github.com/shieldgate/shieldgate/pkg/types"
)

// DefaultSeverityWeights is the score penalty per violation severity. Carried
// as a configurable default, deployments may tune it.
var DefaultSeverityWeights = map[types.SeverityLevel]float64{
	types.SeverityLow:      0.1,
	types.SeverityMedium:   0.3,
	types.SeverityHigh:     0.6,
	types.SeverityCritical: 1.0,
}

// computeScore maps violations to a 0..1 safety score: 1.0 minus the summed
// severity weights, clamped and rounded to 3 decimals. Order-independent, an
// empty list scores exactly 1.0.
func computeScore(violations []types.Violation, weights map[types.SeverityLevel]float64) float64 {
	if len(violations) == 0 {
		return 1.0
	}

	penalty := 0.0
	for _, v := range violations {
		if w, ok := weights[v.Severity]; ok {
			penalty += w
		} else {
			penalty += DefaultSeverityWeights[v.Severity]
		}
	}

	score := 1.0 - penalty
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*1000) / 1000
}

// severityWeights converts the string-keyed config map, falling back to the
// defaults for missing levels.
func severityWeights(configured map[string]float64) map[types.SeverityLevel]float64 {
	weights := make(map[types.SeverityLevel]float64, len(DefaultSeverityWeights))
	for level, w := range DefaultSeverityWeights {
		weights[level] = w
	}
	for level, w := range configured {
		weights[types.SeverityLevel(level)] = w
	}
	return weights
}
