// Package heuristic provides rule-based models used when no remote inference
// endpoint is configured. They satisfy the same contracts as real classifiers
// so scanners cannot tell them apart.
package heuristic

import (
	"context"
	"strings"

	"github.com/shieldgate/shieldgate/pkg/model"
)

// Classifier scores a text by weighted keyword hits. The score is the clamped
// sum of the weights of every matched keyword, matching is case-insensitive
// substring search.
type Classifier struct {
	name          string
	positiveLabel string
	keywords      map[string]float64
}

func NewClassifier(name, positiveLabel string, keywords map[string]float64) *Classifier {
	return &Classifier{
		name:          name,
		positiveLabel: positiveLabel,
		keywords:      keywords,
	}
}

func (c *Classifier) Name() string {
	return c.name
}

func (c *Classifier) Classify(_ context.Context, text string) (model.Classification, error) {
	lowered := strings.ToLower(text)

	score := 0.0
	for keyword, weight := range c.keywords {
		if strings.Contains(lowered, keyword) {
			score += weight
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	if score == 0 {
		return model.Classification{Label: "neutral", Score: 0}, nil
	}
	return model.Classification{Label: c.positiveLabel, Score: score}, nil
}

// NewToxicityClassifier builds the default toxicity model.
func NewToxicityClassifier(name string) *Classifier {
	return NewClassifier(name, "toxic", map[string]float64{
		"idiot":         0.5,
		"stupid":        0.5,
		"moron":         0.6,
		"hate you":      0.7,
		"kill you":      0.9,
		"worthless":     0.6,
		"shut up":       0.4,
		"garbage human": 0.8,
		"pathetic":      0.5,
	})
}

// NewJailbreakClassifier builds the default prompt-attack model. The phrase
// list complements the pattern matcher in the prompt injection scanner, it
// catches softer phrasings below the pattern tier.
func NewJailbreakClassifier(name string) *Classifier {
	return NewClassifier(name, "jailbreak", map[string]float64{
		"hypothetically speaking":    0.4,
		"for educational purposes":   0.4,
		"without any restrictions":   0.5,
		"no ethical guidelines":      0.7,
		"unfiltered response":        0.6,
		"roleplay as":                0.4,
		"stay in character":          0.4,
		"your hidden instructions":   0.7,
		"repeat your system prompt":  0.8,
		"output your initial prompt": 0.8,
	})
}
