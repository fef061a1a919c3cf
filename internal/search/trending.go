package search

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gamehub/searchservice/internal/domain"
)

// PlayerCounter reports live concurrent player counts. Counts are
// best-effort; a failed lookup leaves the count at zero.
type PlayerCounter interface {
	CurrentPlayers(ctx context.Context, id int) (int, error)
}

// ListMode selects how a curated list is assembled.
type ListMode int

const (
	ListTrending ListMode = iota
	ListRecent
)

const (
	defaultListLimit = 10
	maxListLimit     = 25

	// sampleFactor oversamples the pool relative to the requested limit
	// so recency filtering still leaves enough survivors.
	sampleFactor = 3

	playerLookupConcurrency = 4
)

// recencyWindows are tried narrowest first; the selector widens only
// when the current window cannot fill the request.
var recencyWindows = []int{6, 12, 18}

// TrendingSelector assembles trending and recent-release lists from a
// randomized sample of the rotation pool, enriched through the shared
// breaker-guarded path. The surface is guaranteed: when live data runs
// short, curated entries fill the remaining slots.
type TrendingSelector struct {
	enricher *Enricher
	players  PlayerCounter
	pool     []int
	curated  []domain.GameDetail
	logger   *slog.Logger
	now      func() time.Time
	shuffle  func([]int)
}

type SelectorOption func(*TrendingSelector)

func WithSelectorLogger(logger *slog.Logger) SelectorOption {
	return func(s *TrendingSelector) { s.logger = logger }
}

func WithPool(pool []int) SelectorOption {
	return func(s *TrendingSelector) {
		if len(pool) > 0 {
			s.pool = pool
		}
	}
}

func WithCurated(games []domain.GameDetail) SelectorOption {
	return func(s *TrendingSelector) { s.curated = games }
}

func WithSelectorClock(now func() time.Time) SelectorOption {
	return func(s *TrendingSelector) { s.now = now }
}

func WithShuffle(shuffle func([]int)) SelectorOption {
	return func(s *TrendingSelector) { s.shuffle = shuffle }
}

func NewTrendingSelector(enricher *Enricher, players PlayerCounter, opts ...SelectorOption) *TrendingSelector {
	s := &TrendingSelector{
		enricher: enricher,
		players:  players,
		pool:     trendingPool,
		curated:  curatedGames,
		logger:   slog.Default(),
		now:      time.Now,
		shuffle: func(ids []int) {
			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns up to limit games for the requested mode. Trending
// filters the enriched sample by release recency, widening the window
// until enough games qualify, then orders by release date, live player
// count, and composite score. Recent skips the window search and simply
// takes released games newest first.
func (s *TrendingSelector) Select(ctx context.Context, mode ListMode, limit int) []domain.GameDetail {
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	sample := s.samplePool(limit * sampleFactor)
	enriched := s.enricher.Enrich(ctx, sample)

	released := make([]domain.GameDetail, 0, len(enriched))
	for _, game := range enriched {
		if game.Release.Timestamp != nil && !game.Release.ComingSoon {
			released = append(released, game)
		}
	}

	var picked []domain.GameDetail
	switch mode {
	case ListRecent:
		picked = released
	default:
		picked = s.windowed(released, limit)
		s.attachPlayerCounts(ctx, picked)
	}

	s.sortPicked(picked, mode)
	if len(picked) > limit {
		picked = picked[:limit]
	}
	return s.fillFromCurated(picked, limit)
}

func (s *TrendingSelector) samplePool(size int) []domain.CatalogEntry {
	ids := make([]int, len(s.pool))
	copy(ids, s.pool)
	s.shuffle(ids)
	if size > len(ids) {
		size = len(ids)
	}
	entries := make([]domain.CatalogEntry, size)
	for i, id := range ids[:size] {
		entries[i] = domain.CatalogEntry{ID: id}
	}
	return entries
}

// windowed returns the games released within the narrowest recency
// window that can satisfy limit, or the widest window's survivors when
// none can.
func (s *TrendingSelector) windowed(released []domain.GameDetail, limit int) []domain.GameDetail {
	now := s.now()
	var widest []domain.GameDetail
	for _, months := range recencyWindows {
		cutoff := now.AddDate(0, -months, 0)
		var within []domain.GameDetail
		for _, game := range released {
			if game.Release.Timestamp.After(cutoff) {
				within = append(within, game)
			}
		}
		widest = within
		if len(within) >= limit {
			return within
		}
	}
	return widest
}

func (s *TrendingSelector) attachPlayerCounts(ctx context.Context, games []domain.GameDetail) {
	if s.players == nil || len(games) == 0 {
		return
	}
	sem := semaphore.NewWeighted(playerLookupConcurrency)
	var wg sync.WaitGroup
	for i := range games {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(game *domain.GameDetail) {
			defer wg.Done()
			defer sem.Release(1)
			count, err := s.players.CurrentPlayers(ctx, game.ID)
			if err != nil {
				s.logger.Debug("player count lookup failed", "appID", game.ID, "error", err)
				return
			}
			game.CurrentPlayers = count
		}(&games[i])
	}
	wg.Wait()
}

func (s *TrendingSelector) sortPicked(games []domain.GameDetail, mode ListMode) {
	sort.SliceStable(games, func(i, j int) bool {
		ti, tj := games[i].Release.Timestamp, games[j].Release.Timestamp
		if !ti.Equal(*tj) {
			return ti.After(*tj)
		}
		if mode == ListTrending && games[i].CurrentPlayers != games[j].CurrentPlayers {
			return games[i].CurrentPlayers > games[j].CurrentPlayers
		}
		return CompositeScore(games[i]) > CompositeScore(games[j])
	})
}

// fillFromCurated tops the list up to limit with curated entries,
// skipping IDs already present.
func (s *TrendingSelector) fillFromCurated(picked []domain.GameDetail, limit int) []domain.GameDetail {
	if len(picked) >= limit {
		return picked
	}
	seen := make(map[int]struct{}, len(picked))
	for _, game := range picked {
		seen[game.ID] = struct{}{}
	}
	for _, game := range s.curated {
		if len(picked) >= limit {
			break
		}
		if _, dup := seen[game.ID]; dup {
			continue
		}
		seen[game.ID] = struct{}{}
		picked = append(picked, game)
	}
	return picked
}
