package search

import (
	"regexp"
	"strings"

	"gamehub/searchservice/internal/domain"
)

// similarityThreshold is the normalized-name similarity above which two
// records are treated as the same game.
const similarityThreshold = 0.8

// Edition and re-release decorations stripped before comparing names.
// Applied in order, before punctuation removal, so colon and dash
// subtitles like "Celeste: Farewell Edition" reduce to the base title.
var editionSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`[:\x{2013}\x{2014}-]\s*[^:]*\bedition\s*$`),
	regexp.MustCompile(`\s+(game of the year|goty|definitive|deluxe|ultimate|complete|enhanced|extended|collector'?s?|anniversary|gold|premium|legendary|special|standard|farewell)\s+edition\s*$`),
	regexp.MustCompile(`\s+edition\s*$`),
	regexp.MustCompile(`\s+(remastered|remaster|redux|definitive|hd|director'?s cut)\s*$`),
}

var (
	nonAlnum    = regexp.MustCompile(`[^a-z0-9 ]+`)
	multiSpace  = regexp.MustCompile(`\s+`)
	leadArticle = regexp.MustCompile(`^(the|a|an)\s+`)
)

// dedupeKey canonicalizes a name for duplicate comparison: fold case
// and accents, strip edition suffixes, drop punctuation, collapse
// whitespace, and drop a leading article.
func dedupeKey(name string) string {
	s := normalizeQuery(name)
	for _, re := range editionSuffixes {
		s = re.ReplaceAllString(s, "")
	}
	s = nonAlnum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
	s = leadArticle.ReplaceAllString(s, "")
	return s
}

// Dedupe removes near-duplicate games, keeping the first occurrence of
// each. Two records are duplicates when their canonical names are
// similar beyond similarityThreshold. Order is preserved.
func Dedupe(games []domain.GameDetail) []domain.GameDetail {
	if len(games) < 2 {
		return games
	}
	kept := make([]domain.GameDetail, 0, len(games))
	keys := make([]string, 0, len(games))
	for _, game := range games {
		key := dedupeKey(game.Name)
		duplicate := false
		for _, seen := range keys {
			if similarity(key, seen) > similarityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, game)
		keys = append(keys, key)
	}
	return kept
}

// similarity maps Levenshtein distance onto [0,1], where 1 is an exact
// match.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance with a rolling two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
