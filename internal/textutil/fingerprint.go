package textutil

import (
	"math"
	"regexp"
	"sort"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Fingerprint represents a term-frequency vector for text comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Tokenize splits normalized text into tokens, filtering short tokens.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(Normalize(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenCount returns the number of unique tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// Count returns how often token occurred in the source text.
func (f *Fingerprint) Count(token string) float64 {
	if f == nil {
		return 0
	}
	return f.tokens[token]
}

// MaxCount returns the highest token frequency.
func (f *Fingerprint) MaxCount() float64 {
	if f == nil {
		return 0
	}
	var peak float64
	for _, count := range f.tokens {
		if count > peak {
			peak = count
		}
	}
	return peak
}

// Terms returns the unique tokens in lexical order.
func (f *Fingerprint) Terms() []string {
	if f == nil {
		return nil
	}
	out := make([]string, 0, len(f.tokens))
	for token := range f.tokens {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}
