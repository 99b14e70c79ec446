package heuristic

import (
	"context"
	"regexp"
	"sort"

	"github.com/shieldgate/shieldgate/pkg/model"
)

// PII entity classes emitted by the recognizer.
const (
	EntityEmail        = "email"
	EntityPhoneNumber  = "phone_number"
	EntityCreditCard   = "credit_card"
	EntitySSN          = "ssn"
	EntityIBAN         = "iban"
	EntityIPAddress    = "ip_address"
	EntityPerson       = "person"
	EntityLocation     = "location"
	EntityOrganization = "organization"
)

var entityPatterns = []struct {
	entityType string
	score      float64
	pattern    *regexp.Regexp
}{
	{EntityEmail, 0.95, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{EntityCreditCard, 0.9, regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{4}\b`)},
	{EntitySSN, 0.9, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{EntityIBAN, 0.9, regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{10,30}\b`)},
	{EntityIPAddress, 0.85, regexp.MustCompile(`\b((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)},
	{EntityPhoneNumber, 0.8, regexp.MustCompile(`(?:\+\d{1,3}[ -]?)?(?:\(\d{2,4}\)[ -]?|\d{3}[ -])\d{3}[ -]?\d{3,4}\b`)},
	{EntityPerson, 0.6, regexp.MustCompile(`(?i)(?:my name is|i am called|this is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)},
	{EntityLocation, 0.6, regexp.MustCompile(`(?i)(?:i live (?:in|at)|located in|address is)\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`)},
	{EntityOrganization, 0.6, regexp.MustCompile(`(?i)(?:i work (?:at|for)|employed by)\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`)},
}

// Recognizer is a regex-backed entity recognizer covering direct identifiers
// and cue-based indirect identifiers.
type Recognizer struct {
	name string
}

func NewRecognizer(name string) *Recognizer {
	return &Recognizer{name: name}
}

func (r *Recognizer) Name() string {
	return r.name
}

func (r *Recognizer) Recognize(_ context.Context, text string) ([]model.Entity, error) {
	var entities []model.Entity
	claimed := make([]bool, len(text))

	for _, ep := range entityPatterns {
		for _, loc := range ep.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			// Cue patterns capture the identifier itself in group 1.
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			if overlaps(claimed, start, end) {
				continue
			}
			claim(claimed, start, end)
			entities = append(entities, model.Entity{
				Type:  ep.entityType,
				Value: text[start:end],
				Start: start,
				End:   end,
				Score: ep.score,
			})
		}
	}

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Start < entities[j].Start
	})
	return entities, nil
}

func overlaps(claimed []bool, start, end int) bool {
	for i := start; i < end && i < len(claimed); i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

func claim(claimed []bool, start, end int) {
	for i := start; i < end && i < len(claimed); i++ {
		claimed[i] = true
	}
}
