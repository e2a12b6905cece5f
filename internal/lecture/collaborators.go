package lecture

import (
	"context"
	"image"
)

// Classification is the diagram classifier verdict for one image.
type Classification struct {
	IsDiagram  bool
	Confidence float64
}

// Classifier decides whether an image carries diagram content.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (Classification, error)
}

// TermScorer ranks keyword and technical-term candidates found in text.
type TermScorer interface {
	ScoreTerms(ctx context.Context, text string) ([]ScoredTerm, error)
}

// KnowledgeBase is the learned-term store shared across runs. It is always
// passed in explicitly so callers control its lifetime.
type KnowledgeBase interface {
	Lookup(ctx context.Context, term string) (bool, error)
	Record(ctx context.Context, term string) error
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, img image.Image) (Classification, error)

func (f ClassifierFunc) Classify(ctx context.Context, img image.Image) (Classification, error) {
	return f(ctx, img)
}

// TermScorerFunc adapts a function to the TermScorer interface.
type TermScorerFunc func(ctx context.Context, text string) ([]ScoredTerm, error)

func (f TermScorerFunc) ScoreTerms(ctx context.Context, text string) ([]ScoredTerm, error) {
	return f(ctx, text)
}
