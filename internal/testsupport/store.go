package testsupport

import (
	"context"
	"testing"

	"lectern/internal/config"
	"lectern/internal/knowledge"
)

// MustOpenKnowledge opens a knowledge.Store for tests and registers cleanup.
func MustOpenKnowledge(t testing.TB, cfg *config.Config) *knowledge.Store {
	t.Helper()

	store, err := knowledge.Open(cfg)
	if err != nil {
		t.Fatalf("knowledge.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedTerms records each term once in store.
func SeedTerms(t testing.TB, store *knowledge.Store, terms ...string) {
	t.Helper()

	for _, term := range terms {
		if err := store.Record(context.Background(), term); err != nil {
			t.Fatalf("store.Record(%q): %v", term, err)
		}
	}
}
