package search

import (
	"sort"

	"gamehub/searchservice/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50

	// ratingsCountCap bounds the popularity term so a huge review count
	// cannot outweigh critic quality.
	ratingsCountCap = 50000
)

// CompositeScore folds the quality signals into one number:
// critic score dominates, the derived rating nudges, and popularity
// contributes at most 50 points.
func CompositeScore(g domain.GameDetail) float64 {
	score := 0.0
	if g.MetacriticScore != nil {
		score += float64(*g.MetacriticScore) * 10
	}
	if g.Rating != nil {
		score += *g.Rating * 3
	}
	count := g.RatingsCount
	if count > ratingsCountCap {
		count = ratingsCountCap
	}
	score += float64(count) / 1000
	return score
}

// Rank orders games for presentation: records with artwork always sort
// before records without, then composite score descending, then name
// for a stable tie-break.
func Rank(games []domain.GameDetail) {
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].HasImage() != games[j].HasImage() {
			return games[i].HasImage()
		}
		si, sj := CompositeScore(games[i]), CompositeScore(games[j])
		if si != sj {
			return si > sj
		}
		return games[i].Name < games[j].Name
	})
}

// Paginate slices one page out of the ranked list. Page numbers are
// one-based; out-of-range pages yield an empty page with correct
// totals, never an error.
func Paginate(games []domain.GameDetail, page, pageSize int) domain.SearchResult {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total := len(games)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	pageGames := make([]domain.GameDetail, end-start)
	copy(pageGames, games[start:end])

	return domain.SearchResult{
		Games:        pageGames,
		TotalResults: total,
		CurrentPage:  page,
		TotalPages:   totalPages,
	}
}
