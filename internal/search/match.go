package search

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"gamehub/searchservice/internal/domain"
)

// ErrNoCatalog is returned by MatchCatalog when no catalog entries are
// available to match against.
var ErrNoCatalog = errors.New("no catalog available")

// maxCandidates caps how many catalog matches proceed to enrichment.
const maxCandidates = 100

// foldAccents strips combining marks so "Pokémon" matches "pokemon".
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeQuery lowercases, trims, and folds accents. Returns "" for
// input that normalizes to nothing.
func normalizeQuery(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}
	return s
}

type matchRank int

const (
	rankExact matchRank = iota
	rankPrefix
	rankSubstring
	rankWords
)

type candidate struct {
	entry domain.CatalogEntry
	name  string
	rank  matchRank
}

// MatchCatalog scans entries for names matching query and returns at
// most maxCandidates of them, best matches first. A name matches when,
// after normalization, it equals the query, contains it as a substring,
// contains every query word as a substring, or starts with one of the
// query words.
// Exact matches sort before prefix matches, prefix before substring,
// and within a rank shorter names win.
func MatchCatalog(entries []domain.CatalogEntry, query string) ([]domain.CatalogEntry, error) {
	if len(entries) == 0 {
		return nil, ErrNoCatalog
	}

	q := normalizeQuery(query)
	if q == "" {
		return nil, nil
	}
	words := strings.Fields(q)

	var candidates []candidate
	for _, entry := range entries {
		name := normalizeQuery(entry.Name)
		rank, ok := matchName(name, q, words)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{entry: entry, name: name, rank: rank})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		if len(candidates[i].name) != len(candidates[j].name) {
			return len(candidates[i].name) < len(candidates[j].name)
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	out := make([]domain.CatalogEntry, len(candidates))
	for i, c := range candidates {
		out[i] = c.entry
	}
	return out, nil
}

func matchName(name, query string, queryWords []string) (matchRank, bool) {
	if name == "" {
		return 0, false
	}
	if name == query {
		return rankExact, true
	}
	if strings.HasPrefix(name, query) {
		return rankPrefix, true
	}
	if strings.Contains(name, query) {
		return rankSubstring, true
	}
	if containsAllWords(name, queryWords) {
		return rankWords, true
	}
	if startsWithAnyWord(name, queryWords) {
		return rankWords, true
	}
	return 0, false
}

// containsAllWords reports whether every query word appears as a
// substring of name, in any order, so "val stardew" finds
// "Stardew Valley".
func containsAllWords(name string, queryWords []string) bool {
	for _, qw := range queryWords {
		if !strings.Contains(name, qw) {
			return false
		}
	}
	return true
}

// startsWithAnyWord reports whether name begins with at least one
// query word, so "hollow knight silksong" still finds "Hollow Knight".
func startsWithAnyWord(name string, queryWords []string) bool {
	for _, qw := range queryWords {
		if strings.HasPrefix(name, qw) {
			return true
		}
	}
	return false
}
