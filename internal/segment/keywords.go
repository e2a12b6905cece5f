package segment

import (
	"lectern/internal/lecture"
	"lectern/internal/textutil"
)

// MergeKeywords applies the keyword partition rule: terms shared by the slide
// and the segment transcript are kept, terms unique to the transcript are
// kept, and terms found only on the slide are dropped. Matching is
// case-insensitive; the transcript's spelling and order win.
func MergeKeywords(slideTerms, segmentTerms []lecture.ScoredTerm) []lecture.ScoredTerm {
	onSlide := make(map[string]struct{}, len(slideTerms))
	for _, term := range slideTerms {
		onSlide[textutil.Normalize(term.Term)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(segmentTerms))
	var common, unique []lecture.ScoredTerm
	for _, term := range segmentTerms {
		key := textutil.Normalize(term.Term)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := onSlide[key]; ok {
			common = append(common, term)
		} else {
			unique = append(unique, term)
		}
	}
	return append(common, unique...)
}

// FilterTechnical keeps the slide technical terms that literally occur in the
// transcript, ignoring case. Duplicates collapse onto their first spelling.
func FilterTechnical(slideTechnical []string, transcript string) []string {
	out := make([]string, 0, len(slideTechnical))
	seen := make(map[string]struct{}, len(slideTechnical))
	for _, term := range slideTechnical {
		key := textutil.Normalize(term)
		if _, dup := seen[key]; dup {
			continue
		}
		if !textutil.ContainsFold(transcript, term) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	return out
}
