// Package termscore is the built-in keyword and technical-term scorer used
// when no external scorer is wired in.
//
// Candidates are single tokens and adjacent token pairs outside the stopword
// list. Relevance is the sum of bonuses for known technical phrases (0.5),
// technical indicator words or code-like surface forms (0.3), multi-word terms
// (0.2) and mid-sentence capitalization (0.2), plus 0.3 times the cosine
// between the term and the whole text, capped at 1. Non-technical word pairs
// must occur at least twice.
package termscore

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"lectern/internal/lecture"
	"lectern/internal/textutil"
)

const (
	phraseBonus     = 0.5
	indicatorBonus  = 0.3
	multiWordBonus  = 0.2
	properNounBonus = 0.2
	cosineWeight    = 0.3
	minTokenRunes   = 3
)

var (
	tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:[.\-+#][\p{L}\p{N}+#]+)*`)

	// Surface forms that read as code or product names.
	technicalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z][A-Z0-9]{2,}$`),                            // acronym
		regexp.MustCompile(`^\d+\.\d+\.\d+$`),                                // version
		regexp.MustCompile(`^[a-z]+[A-Z][a-zA-Z]*$`),                         // camelCase
		regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*\.(js|ts|py|go|java|rs)$`), // file name
	}
)

// Options tunes the scorer.
type Options struct {
	MinRelevance float64
	MaxTerms     int
	// ExtraPhrases are added to the built-in technical phrase list.
	ExtraPhrases []string
}

// Scorer implements lecture.TermScorer.
type Scorer struct {
	minRelevance float64
	maxTerms     int
	phrases      map[string]struct{}
}

// New builds a Scorer. A non-positive MaxTerms means no limit.
func New(opts Options) *Scorer {
	phrases := make(map[string]struct{}, len(technicalPhrases)+len(opts.ExtraPhrases))
	for p := range technicalPhrases {
		phrases[p] = struct{}{}
	}
	for _, p := range opts.ExtraPhrases {
		if n := textutil.Normalize(p); n != "" {
			phrases[n] = struct{}{}
		}
	}
	return &Scorer{
		minRelevance: opts.MinRelevance,
		maxTerms:     opts.MaxTerms,
		phrases:      phrases,
	}
}

type token struct {
	surface  string
	key      string
	stop     bool
	sentence int
	first    bool
}

type candidate struct {
	term      string
	words     int
	count     int
	technical bool
	phrase    bool
	proper    bool
}

// ScoreTerms ranks candidate terms in text by relevance, highest first.
func (s *Scorer) ScoreTerms(ctx context.Context, text string) ([]lecture.ScoredTerm, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return []lecture.ScoredTerm{}, nil
	}
	doc := textutil.NewFingerprint(text)

	candidates := make(map[string]*candidate)
	order := make([]string, 0)
	add := func(key string, c candidate) {
		if existing, ok := candidates[key]; ok {
			existing.count++
			existing.proper = existing.proper || c.proper
			return
		}
		c.count = 1
		candidates[key] = &c
		order = append(order, key)
	}

	for i, tok := range tokens {
		if tok.stop {
			continue
		}
		patterned := matchesTechnicalPattern(tok.surface)
		if utf8.RuneCountInString(tok.key) < minTokenRunes && !patterned {
			continue
		}
		term := tok.key
		if patterned {
			term = tok.surface
		}
		_, indicator := technicalIndicators[tok.key]
		_, phrase := s.phrases[tok.key]
		add(tok.key, candidate{
			term:      term,
			words:     1,
			technical: indicator || patterned || phrase,
			phrase:    phrase,
			proper:    !tok.first && startsUpper(tok.surface) && !patterned,
		})

		if i+1 >= len(tokens) {
			continue
		}
		next := tokens[i+1]
		if next.stop || next.sentence != tok.sentence || utf8.RuneCountInString(next.key) < minTokenRunes {
			continue
		}
		key := tok.key + " " + next.key
		_, phrase = s.phrases[key]
		_, nextIndicator := technicalIndicators[next.key]
		add(key, candidate{
			term:      key,
			words:     2,
			technical: phrase || indicator || nextIndicator,
			phrase:    phrase,
		})
	}

	// Configured phrases longer than two words are matched directly.
	normalized := textutil.Normalize(text)
	for p := range s.phrases {
		if strings.Count(p, " ") < 2 || !containsPhrase(normalized, p) {
			continue
		}
		add(p, candidate{term: p, words: strings.Count(p, " ") + 1, technical: true, phrase: true})
	}

	out := make([]lecture.ScoredTerm, 0, len(order))
	for _, key := range order {
		c := candidates[key]
		// Plain word pairs only count when the speaker repeats them.
		if c.words > 1 && !c.technical && c.count < 2 {
			continue
		}
		relevance := s.relevance(c, doc)
		if relevance < s.minRelevance {
			continue
		}
		out = append(out, lecture.ScoredTerm{Term: c.term, Relevance: relevance, Technical: c.technical})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		return out[i].Term < out[j].Term
	})
	if s.maxTerms > 0 && len(out) > s.maxTerms {
		out = out[:s.maxTerms]
	}
	return out, nil
}

func (s *Scorer) relevance(c *candidate, doc *textutil.Fingerprint) float64 {
	score := 0.0
	if c.phrase {
		score += phraseBonus
	}
	if c.technical && !c.phrase {
		score += indicatorBonus
	}
	if c.words > 1 {
		score += multiWordBonus
	}
	if c.proper {
		score += properNounBonus
	}
	score += cosineWeight * textutil.CosineSimilarity(textutil.NewFingerprint(c.term), doc)
	if score > 1 {
		return 1
	}
	return score
}

func tokenize(text string) []token {
	var out []token
	sentence := 0
	last := 0
	first := true
	for _, loc := range tokenPattern.FindAllStringIndex(text, -1) {
		if gap := text[last:loc[0]]; strings.ContainsAny(gap, ".!?;:\n") {
			sentence++
			first = true
		}
		surface := text[loc[0]:loc[1]]
		key := textutil.Normalize(surface)
		_, stop := stopwords[key]
		out = append(out, token{surface: surface, key: key, stop: stop, sentence: sentence, first: first})
		first = false
		last = loc[1]
	}
	return out
}

func matchesTechnicalPattern(surface string) bool {
	for _, re := range technicalPatterns {
		if re.MatchString(surface) {
			return true
		}
	}
	return false
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func containsPhrase(text, phrase string) bool {
	idx := strings.Index(text, phrase)
	for idx >= 0 {
		end := idx + len(phrase)
		before := idx == 0 || !isWordByte(text[idx-1])
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], phrase)
		if next < 0 {
			return false
		}
		idx += next + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}
