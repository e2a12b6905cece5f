package testsupport

import (
	"context"
	"errors"
	"image"
	"sort"
	"strings"
	"sync"

	"lectern/internal/lecture"
)

// ErrStubUnavailable is returned by the failing collaborator stubs.
var ErrStubUnavailable = errors.New("stub collaborator unavailable")

// StaticClassifier reports the same verdict for every image and counts calls.
type StaticClassifier struct {
	Verdict lecture.Classification

	mu    sync.Mutex
	calls int
}

func (c *StaticClassifier) Classify(_ context.Context, _ image.Image) (lecture.Classification, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Verdict, nil
}

// Calls returns how many times Classify ran.
func (c *StaticClassifier) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// FailingClassifier always errors.
func FailingClassifier() lecture.Classifier {
	return lecture.ClassifierFunc(func(context.Context, image.Image) (lecture.Classification, error) {
		return lecture.Classification{}, ErrStubUnavailable
	})
}

// TableScorer returns fixed terms per exact input text. Unknown texts score no
// terms.
type TableScorer map[string][]lecture.ScoredTerm

func (s TableScorer) ScoreTerms(_ context.Context, text string) ([]lecture.ScoredTerm, error) {
	terms := s[text]
	out := make([]lecture.ScoredTerm, len(terms))
	copy(out, terms)
	return out, nil
}

// FailingScorer always errors.
func FailingScorer() lecture.TermScorer {
	return lecture.TermScorerFunc(func(context.Context, string) ([]lecture.ScoredTerm, error) {
		return nil, ErrStubUnavailable
	})
}

// Terms builds scored terms with the given relevance.
func Terms(relevance float64, names ...string) []lecture.ScoredTerm {
	out := make([]lecture.ScoredTerm, 0, len(names))
	for _, name := range names {
		out = append(out, lecture.ScoredTerm{Term: name, Relevance: relevance})
	}
	return out
}

// MemoryKnowledge is an in-process knowledge base fixture.
type MemoryKnowledge struct {
	mu     sync.Mutex
	known  map[string]int
	FailOn string
	// FailLookup makes every Lookup error.
	FailLookup bool
}

// NewMemoryKnowledge seeds a fixture with known terms.
func NewMemoryKnowledge(terms ...string) *MemoryKnowledge {
	kb := &MemoryKnowledge{known: make(map[string]int)}
	for _, term := range terms {
		kb.known[strings.ToLower(term)] = 1
	}
	return kb
}

func (kb *MemoryKnowledge) Lookup(_ context.Context, term string) (bool, error) {
	if kb.FailLookup {
		return false, ErrStubUnavailable
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	_, ok := kb.known[strings.ToLower(term)]
	return ok, nil
}

func (kb *MemoryKnowledge) Record(_ context.Context, term string) error {
	if kb.FailOn != "" && strings.EqualFold(kb.FailOn, term) {
		return ErrStubUnavailable
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.known[strings.ToLower(term)]++
	return nil
}

// Recorded returns the sorted known terms.
func (kb *MemoryKnowledge) Recorded() []string {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	out := make([]string, 0, len(kb.known))
	for term := range kb.known {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Count returns how often term was seeded or recorded.
func (kb *MemoryKnowledge) Count(term string) int {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return kb.known[strings.ToLower(term)]
}
