// Package model defines the pluggable detection model contracts. Any inference
// runtime satisfying these shapes can back a scanner, the engine is agnostic to
// model internals.
package model

import "context"

// Model is a loaded detection model. Concrete capabilities are expressed by
// the Classifier and EntityRecognizer interfaces.
type Model interface {
	Name() string
}

// Loader produces a model on demand. Loaders run at most once per cache key,
// the ModelCache guarantees that.
type Loader func(ctx context.Context) (Model, error)

// Classification is a single label prediction with its confidence.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier labels a whole text.
type Classifier interface {
	Model
	Classify(ctx context.Context, text string) (Classification, error)
}

// Entity is a recognized span within a text.
type Entity struct {
	Type  string  `json:"type"`
	Value string  `json:"value"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// EntityRecognizer extracts typed spans from a text.
type EntityRecognizer interface {
	Model
	Recognize(ctx context.Context, text string) ([]Entity, error)
}
