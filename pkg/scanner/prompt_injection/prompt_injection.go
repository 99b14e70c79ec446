// Package prompt_injection detects attempts to override or leak the system
// prompt. A static phrase matcher catches direct override attempts, a
// classifier catches softer phrasings.
package prompt_injection

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/config"
	"github.com/shieldgate/shieldgate/pkg/model"
	"github.com/shieldgate/shieldgate/pkg/model/heuristic"
	"github.com/shieldgate/shieldgate/pkg/model/remote"
	"github.com/shieldgate/shieldgate/pkg/modelcache"
	"github.com/shieldgate/shieldgate/pkg/scanner"
	"github.com/shieldgate/shieldgate/pkg/types"
)

const ScannerName = "prompt_injection_scanner"

// scannerParams are the variant-specific knobs carried in the settings.
type scannerParams struct {
	ExtraPhrases []string `mapstructure:"extra_phrases"`
}

type Scanner struct {
	*scanner.Base
	classifier model.Classifier
	phrases    []string
}

func New(
	settings config.ScannerSettings,
	timeoutMs int64,
	models *modelcache.ModelCache,
	logger *logrus.Logger,
) *Scanner {
	s := &Scanner{
		Base: scanner.NewBase(ScannerName, types.ScannerPromptInjection, settings, timeoutMs, models, logger),
	}
	s.SetHooks(s.loadModel, s.detect)
	return s
}

func (s *Scanner) loadModel(ctx context.Context) error {
	settings := s.Settings()

	var params scannerParams
	if err := mapstructure.Decode(settings.Params, &params); err != nil {
		return fmt.Errorf("invalid scanner params: %w", err)
	}
	s.phrases = injectionPhrases
	for _, phrase := range params.ExtraPhrases {
		s.phrases = append(s.phrases, strings.ToLower(phrase))
	}

	modelID := settings.ModelID
	if modelID == "" {
		modelID = "jailbreak-classifier-v1"
	}

	loader := func(ctx context.Context) (model.Model, error) {
		if settings.BaseURL != "" {
			return remote.NewClient(modelID, remote.Credentials{
				BaseURL: settings.BaseURL,
				Token:   settings.Token,
			}, nil, s.Logger()), nil
		}
		return heuristic.NewJailbreakClassifier(modelID), nil
	}

	m, err := s.Models().GetModel(ctx, modelID, loader)
	if err != nil {
		return err
	}
	classifier, ok := m.(model.Classifier)
	if !ok {
		return fmt.Errorf("model '%s' is not a classifier", modelID)
	}
	s.classifier = classifier
	return nil
}

func (s *Scanner) detect(ctx context.Context, text string, _ types.Direction) ([]types.Violation, error) {
	var violations []types.Violation
	lowered := strings.ToLower(text)

	for _, phrase := range s.phrases {
		idx := strings.Index(lowered, phrase)
		if idx < 0 {
			continue
		}
		v, err := types.NewViolation(
			types.ViolationPromptInjection,
			types.SeverityHigh,
			fmt.Sprintf("prompt injection pattern detected: %q", phrase),
			0.9,
			s.Name(),
			types.WithSnippet(text[idx:idx+len(phrase)], idx, idx+len(phrase)),
		)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	classification, err := s.classifier.Classify(ctx, text)
	if err != nil {
		// The phrase tier already produced its findings, a broken classifier
		// only loses the softer tier.
		s.Logger().WithError(err).WithField("scanner", s.Name()).Warn("injection classifier call failed")
		return violations, nil
	}

	threshold := s.Settings().Threshold
	if threshold <= 0 {
		threshold = 0.5
	}
	if classification.Label != "neutral" && classification.Score >= threshold {
		v, err := types.NewViolation(
			types.ViolationMaliciousPrompt,
			types.SeverityMedium,
			fmt.Sprintf("classifier flagged prompt as %s (score %.2f)", classification.Label, classification.Score),
			classification.Score,
			s.Name(),
			types.WithViolationMetadata(map[string]interface{}{
				"label":     classification.Label,
				"threshold": threshold,
			}),
		)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	return violations, nil
}
