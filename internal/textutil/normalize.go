package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case, applies NFKC compatibility normalization, and collapses
// runs of whitespace to single spaces. OCR output frequently mixes ligatures and
// full-width forms, which NFKC maps onto their plain equivalents.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded := cases.Fold().String(norm.NFKC.String(text))
	return strings.Join(strings.Fields(folded), " ")
}

// Words splits normalized text on whitespace.
func Words(text string) []string {
	return strings.Fields(Normalize(text))
}

// ContainsFold reports whether needle occurs in haystack after normalization.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}
