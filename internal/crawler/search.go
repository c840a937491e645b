package crawler

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Searcher counts case-insensitive occurrences of configured terms in
// page text. Counting is literal, non-overlapping substring counting:
// no tokenization, no word boundaries. A term matching inside a longer
// word is counted. This mirrors the export format consumers already
// depend on, so it must not be "fixed" to word-level matching.
type Searcher struct {
	// terms are the configured search terms, case-folded once at
	// construction. May be multi-word phrases.
	terms []string

	// fold lowercases text in a Unicode-correct way so that matching
	// behaves the same for non-ASCII terms.
	fold cases.Caser
}

// NewSearcher creates a Searcher for the given terms. Terms are
// trimmed and lowercased; empty terms are dropped.
func NewSearcher(terms []string) *Searcher {
	fold := cases.Lower(language.Und)

	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		term = fold.String(strings.TrimSpace(term))
		if term != "" {
			normalized = append(normalized, term)
		}
	}

	return &Searcher{terms: normalized, fold: fold}
}

// Terms returns the case-normalized term list.
func (s *Searcher) Terms() []string {
	return s.terms
}

// Count returns the occurrence count of every configured term in the
// given text. With no configured terms the result is an empty map.
// Every term appears in the result, including those with zero hits.
func (s *Searcher) Count(text string) map[string]int {
	counts := make(map[string]int, len(s.terms))
	if len(s.terms) == 0 {
		return counts
	}

	lower := s.fold.String(text)
	for _, term := range s.terms {
		counts[term] = strings.Count(lower, term)
	}

	return counts
}
