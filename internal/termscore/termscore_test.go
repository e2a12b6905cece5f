package termscore_test

import (
	"context"
	"sort"
	"testing"

	"lectern/internal/lecture"
	"lectern/internal/termscore"
)

func score(t *testing.T, opts termscore.Options, text string) []lecture.ScoredTerm {
	t.Helper()
	terms, err := termscore.New(opts).ScoreTerms(context.Background(), text)
	if err != nil {
		t.Fatalf("ScoreTerms: %v", err)
	}
	return terms
}

func index(terms []lecture.ScoredTerm) map[string]lecture.ScoredTerm {
	out := make(map[string]lecture.ScoredTerm, len(terms))
	for _, term := range terms {
		out[term.Term] = term
	}
	return out
}

func TestScoreTermsFindsTechnicalPhrases(t *testing.T) {
	terms := score(t, termscore.Options{MinRelevance: 0.3, MaxTerms: 10},
		"Gradient descent minimizes the loss function. We compute the gradient with backpropagation.")
	if len(terms) == 0 {
		t.Fatal("expected terms")
	}
	byTerm := index(terms)
	for _, want := range []string{"gradient descent", "loss function", "gradient", "backpropagation"} {
		term, ok := byTerm[want]
		if !ok {
			t.Fatalf("missing %q in %+v", want, terms)
		}
		if !term.Technical {
			t.Fatalf("%q should be technical", want)
		}
	}
	if _, ok := byTerm["the"]; ok {
		t.Fatal("stopwords must not be scored")
	}
	if _, ok := byTerm["descent minimizes"]; ok {
		t.Fatal("one-off plain word pairs must be skipped")
	}
	if byTerm["gradient descent"].Relevance <= byTerm["gradient"].Relevance {
		t.Fatalf("known phrase should outrank its indicator word: %+v", terms)
	}
	if !sort.SliceIsSorted(terms, func(i, j int) bool { return terms[i].Relevance > terms[j].Relevance }) {
		t.Fatalf("terms not sorted by relevance: %+v", terms)
	}
	for _, term := range terms {
		if term.Relevance < 0.3 || term.Relevance > 1 {
			t.Fatalf("relevance out of range: %+v", term)
		}
	}
}

func TestScoreTermsTechnicalPatterns(t *testing.T) {
	terms := score(t, termscore.Options{MinRelevance: 0.3},
		"We deploy the API on a GPU cluster with Kubernetes 1.28.0 and call fooBar from main.py")
	byTerm := index(terms)
	for _, want := range []string{"API", "GPU", "1.28.0", "fooBar", "main.py", "kubernetes"} {
		term, ok := byTerm[want]
		if !ok {
			t.Fatalf("missing %q in %+v", want, terms)
		}
		if !term.Technical {
			t.Fatalf("%q should be technical", want)
		}
	}
}

func TestScoreTermsMaxTermsAndThreshold(t *testing.T) {
	text := "The neural network layer feeds the tensor into the kernel and the matrix through the optimizer on the server"
	all := score(t, termscore.Options{MinRelevance: 0.3}, text)
	if len(all) < 4 {
		t.Fatalf("expected several terms, got %+v", all)
	}
	capped := score(t, termscore.Options{MinRelevance: 0.3, MaxTerms: 3}, text)
	if len(capped) != 3 {
		t.Fatalf("expected 3 terms, got %d", len(capped))
	}
	for i := range capped {
		if capped[i] != all[i] {
			t.Fatalf("capped list should be the top of the full list: %+v vs %+v", capped, all[:3])
		}
	}
	none := score(t, termscore.Options{MinRelevance: 1.01}, text)
	if len(none) != 0 {
		t.Fatalf("expected nothing above an impossible threshold, got %+v", none)
	}
}

func TestScoreTermsExtraPhrases(t *testing.T) {
	text := "Today we study the Byzantine fault tolerance problem"
	without := index(score(t, termscore.Options{MinRelevance: 0.3}, text))
	if _, ok := without["byzantine fault tolerance"]; ok {
		t.Fatal("phrase should be unknown by default")
	}
	with := index(score(t, termscore.Options{MinRelevance: 0.3, ExtraPhrases: []string{"Byzantine  Fault Tolerance"}}, text))
	term, ok := with["byzantine fault tolerance"]
	if !ok || !term.Technical {
		t.Fatalf("expected configured phrase to be scored as technical, got %+v", with)
	}
}

func TestScoreTermsEmptyText(t *testing.T) {
	terms := score(t, termscore.Options{}, "   ")
	if terms == nil || len(terms) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", terms)
	}
}

func TestScoreTermsDeterministic(t *testing.T) {
	text := "Attention layers weigh tokens. Attention layers replace recurrence in the transformer."
	first := score(t, termscore.Options{MinRelevance: 0.3}, text)
	for i := 0; i < 5; i++ {
		again := score(t, termscore.Options{MinRelevance: 0.3}, text)
		if len(again) != len(first) {
			t.Fatalf("run %d length differs", i)
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}
