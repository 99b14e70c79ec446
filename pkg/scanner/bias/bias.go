// Package bias flags biased generalizations in generated text. This
// configuration runs on phrase heuristics alone, swapping in a classifier only
// changes loadModel, the Scanner contract stays the same.
package bias

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/config"
	"github.com/shieldgate/shieldgate/pkg/modelcache"
	"github.com/shieldgate/shieldgate/pkg/scanner"
	"github.com/shieldgate/shieldgate/pkg/types"
)

const ScannerName = "bias_scanner"

type Scanner struct {
	*scanner.Base
}

func New(
	settings config.ScannerSettings,
	timeoutMs int64,
	models *modelcache.ModelCache,
	logger *logrus.Logger,
) *Scanner {
	s := &Scanner{
		Base: scanner.NewBase(ScannerName, types.ScannerBias, settings, timeoutMs, models, logger),
	}
	// No model to load in the heuristic configuration.
	s.SetHooks(nil, s.detect)
	return s
}

func (s *Scanner) detect(_ context.Context, text string, _ types.Direction) ([]types.Violation, error) {
	var violations []types.Violation
	lowered := strings.ToLower(text)

	for _, group := range biasPhrases {
		for _, phrase := range group.phrases {
			idx := strings.Index(lowered, phrase)
			if idx < 0 {
				continue
			}
			v, err := types.NewViolation(
				types.ViolationBiasDetected,
				types.SeverityLow,
				fmt.Sprintf("potentially biased language (%s)", group.category),
				0.6,
				s.Name(),
				types.WithSnippet(text[idx:idx+len(phrase)], idx, idx+len(phrase)),
				types.WithViolationMetadata(map[string]interface{}{
					"category": group.category,
				}),
			)
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	return violations, nil
}
