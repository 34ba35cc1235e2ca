// Package search implements typo-tolerant ticket discovery: fuzzy matching
// against title, description, tags, and slug, weighted and ranked the same
// way the original implementation's FuzzySearcher did, but built on
// sahilm/fuzzy's subsequence matcher rather than a hand-rolled scorer.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/videticket/videticket/internal/domain"
)

// Config tunes fuzzy match behavior.
type Config struct {
	// MinScore is the minimum combined score a ticket must reach to be
	// returned.
	MinScore int
	// SearchDescription includes the description field in matching.
	SearchDescription bool
	// SearchTags includes the space-joined tag list in matching.
	SearchTags bool
	// MaxResults caps the number of returned matches; 0 means unlimited.
	MaxResults int
}

// DefaultConfig mirrors the original's defaults: a modest score floor,
// description and tags both searched, results capped at 50.
func DefaultConfig() Config {
	return Config{MinScore: 30, SearchDescription: true, SearchTags: true, MaxResults: 50}
}

// MatchedField records which field matched, its individual score, and the
// rune indices that matched (for highlighting).
type MatchedField struct {
	Field   string
	Score   int
	Indices []int
}

// Match is a single ticket's fuzzy search result.
type Match struct {
	Ticket        domain.Ticket
	Score         int
	MatchedFields []MatchedField
}

// Searcher runs fuzzy queries over a ticket slice.
type Searcher struct {
	cfg Config
}

// New constructs a Searcher with the given config.
func New(cfg Config) *Searcher { return &Searcher{cfg: cfg} }

// NewDefault constructs a Searcher with DefaultConfig.
func NewDefault() *Searcher { return New(DefaultConfig()) }

// Search ranks tickets against query, highest score first, truncated to
// MaxResults when configured.
func (s *Searcher) Search(query string, tickets []domain.Ticket) []Match {
	matches := make([]Match, 0, len(tickets))
	for _, t := range tickets {
		if m, ok := s.matchTicket(query, t); ok {
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if s.cfg.MaxResults > 0 && len(matches) > s.cfg.MaxResults {
		matches = matches[:s.cfg.MaxResults]
	}
	return matches
}

// matchTicket mirrors the original's per-field weighting: title counts
// double (capped at 100), description/tags/slug count once, and a ticket
// only survives if the combined score clears MinScore.
func (s *Searcher) matchTicket(query string, t domain.Ticket) (Match, bool) {
	var fields []MatchedField
	total := 0

	if score, indices, ok := fuzzyMatch(query, t.Title); ok {
		weighted := score * 2
		if weighted > 100 {
			weighted = 100
		}
		total += weighted
		fields = append(fields, MatchedField{Field: "title", Score: weighted, Indices: indices})
	}

	if s.cfg.SearchDescription && t.Description != "" {
		if score, indices, ok := fuzzyMatch(query, t.Description); ok {
			total += score
			fields = append(fields, MatchedField{Field: "description", Score: score, Indices: indices})
		}
	}

	if s.cfg.SearchTags && len(t.Tags) > 0 {
		tagsStr := strings.Join(t.Tags, " ")
		if score, indices, ok := fuzzyMatch(query, tagsStr); ok {
			total += score
			fields = append(fields, MatchedField{Field: "tags", Score: score, Indices: indices})
		}
	}

	if score, indices, ok := fuzzyMatch(query, t.Slug); ok {
		total += score
		fields = append(fields, MatchedField{Field: "slug", Score: score, Indices: indices})
	}

	if total >= s.cfg.MinScore && len(fields) > 0 {
		return Match{Ticket: t, Score: total, MatchedFields: fields}, true
	}
	return Match{}, false
}

// fuzzyMatch wraps fuzzy.Find's single-candidate form, returning the match
// score and matched rune indices.
func fuzzyMatch(query, text string) (score int, indices []int, ok bool) {
	if text == "" {
		return 0, nil, false
	}
	results := fuzzy.Find(query, []string{text})
	if len(results) == 0 {
		return 0, nil, false
	}
	return results[0].Score, results[0].MatchedIndexes, true
}

// Highlight wraps every matched rune (by index) between start and end,
// for rendering search results in a terminal or UI.
func Highlight(text string, indices []int, start, end string) string {
	if len(indices) == 0 {
		return text
	}
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}

	var b strings.Builder
	inMatch := false
	for i, r := range []rune(text) {
		should := set[i]
		if should && !inMatch {
			b.WriteString(start)
			inMatch = true
		} else if !should && inMatch {
			b.WriteString(end)
			inMatch = false
		}
		b.WriteRune(r)
	}
	if inMatch {
		b.WriteString(end)
	}
	return b.String()
}
