// Package toxicity flags toxic language through a single classifier call. One
// instance serves both directions, the violation type follows the direction of
// the scanned text.
package toxicity

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/config"
	"github.com/shieldgate/shieldgate/pkg/model"
	"github.com/shieldgate/shieldgate/pkg/model/heuristic"
	"github.com/shieldgate/shieldgate/pkg/model/remote"
	"github.com/shieldgate/shieldgate/pkg/modelcache"
	"github.com/shieldgate/shieldgate/pkg/scanner"
	"github.com/shieldgate/shieldgate/pkg/types"
)

const (
	ScannerName = "toxicity_scanner"
	toxicLabel  = "toxic"
)

type Scanner struct {
	*scanner.Base
	classifier model.Classifier
}

func New(
	settings config.ScannerSettings,
	timeoutMs int64,
	models *modelcache.ModelCache,
	logger *logrus.Logger,
) *Scanner {
	s := &Scanner{
		Base: scanner.NewBase(ScannerName, types.ScannerToxicity, settings, timeoutMs, models, logger),
	}
	s.SetHooks(s.loadModel, s.detect)
	return s
}

func (s *Scanner) loadModel(ctx context.Context) error {
	settings := s.Settings()
	modelID := settings.ModelID
	if modelID == "" {
		modelID = "toxicity-classifier-v1"
	}

	loader := func(ctx context.Context) (model.Model, error) {
		if settings.BaseURL != "" {
			return remote.NewClient(modelID, remote.Credentials{
				BaseURL: settings.BaseURL,
				Token:   settings.Token,
			}, nil, s.Logger()), nil
		}
		return heuristic.NewToxicityClassifier(modelID), nil
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

func (s *Scanner) detect(ctx context.Context, text string, direction types.Direction) ([]types.Violation, error) {
	classification, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	threshold := s.Settings().Threshold
	if threshold <= 0 {
		threshold = 0.7
	}
	if classification.Label != toxicLabel || classification.Score <= threshold {
		return nil, nil
	}

	violationType := types.ViolationToxicInput
	if direction == types.DirectionOutput {
		violationType = types.ViolationToxicOutput
	}

	v, err := types.NewViolation(
		violationType,
		types.SeverityMedium,
		fmt.Sprintf("toxic content detected (score %.2f)", classification.Score),
		classification.Score,
		s.Name(),
		types.WithViolationMetadata(map[string]interface{}{
			"threshold": threshold,
		}),
	)
	if err != nil {
		return nil, err
	}
	return []types.Violation{v}, nil
}
