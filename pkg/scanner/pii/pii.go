// Package pii detects personally identifiable information through entity
// recognition. Severity is tiered by entity class: direct identifiers are
// HIGH, indirect identifiers MEDIUM, anything else LOW.
package pii

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

const ScannerName = "pii_scanner"

// Direct identifiers pinpoint a person on their own.
var directEntities = map[string]bool{
	heuristic.EntityEmail:       true,
	heuristic.EntityPhoneNumber: true,
	heuristic.EntityCreditCard:  true,
	heuristic.EntitySSN:         true,
	heuristic.EntityIBAN:        true,
	heuristic.EntityIPAddress:   true,
}

// Indirect identifiers narrow a person down in combination.
var indirectEntities = map[string]bool{
	heuristic.EntityPerson:       true,
	heuristic.EntityLocation:     true,
	heuristic.EntityOrganization: true,
}

type Scanner struct {
	*scanner.Base
	recognizer model.EntityRecognizer
}

func New(
	settings config.ScannerSettings,
	timeoutMs int64,
	models *modelcache.ModelCache,
	logger *logrus.Logger,
) *Scanner {
	s := &Scanner{
		Base: scanner.NewBase(ScannerName, types.ScannerPII, settings, timeoutMs, models, logger),
	}
	s.SetHooks(s.loadModel, s.detect)
	return s
}

func (s *Scanner) loadModel(ctx context.Context) error {
	settings := s.Settings()
	modelID := settings.ModelID
	if modelID == "" {
		modelID = "pii-recognizer-v1"
	}

	loader := func(ctx context.Context) (model.Model, error) {
		if settings.BaseURL != "" {
			return remote.NewClient(modelID, remote.Credentials{
				BaseURL: settings.BaseURL,
				Token:   settings.Token,
			}, nil, s.Logger()), nil
		}
		return heuristic.NewRecognizer(modelID), nil
	}

	m, err := s.Models().GetModel(ctx, modelID, loader)
	if err != nil {
		return err
	}
	recognizer, ok := m.(model.EntityRecognizer)
	if !ok {
		return fmt.Errorf("model '%s' is not an entity recognizer", modelID)
	}
	s.recognizer = recognizer
	return nil
}

func (s *Scanner) detect(ctx context.Context, text string, _ types.Direction) ([]types.Violation, error) {
	entities, err := s.recognizer.Recognize(ctx, text)
	if err != nil {
		return nil, err
	}

	violations := make([]types.Violation, 0, len(entities))
	for _, entity := range entities {
		v, err := types.NewViolation(
			types.ViolationPIILeakage,
			severityFor(entity.Type),
			fmt.Sprintf("%s detected in text", entity.Type),
			entity.Score,
			s.Name(),
			types.WithSnippet(entity.Value, entity.Start, entity.End),
			types.WithViolationMetadata(map[string]interface{}{
				"entity_type": entity.Type,
			}),
		)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

func severityFor(entityType string) types.SeverityLevel {
	switch {
	case directEntities[entityType]:
		return types.SeverityHigh
	case indirectEntities[entityType]:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}
