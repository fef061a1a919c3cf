package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gamehub/searchservice/internal/domain"
)

// User-facing failure messages. Rate limiting is reported distinctly
// from an empty result so clients can tell "nothing matched" apart
// from "come back later".
const (
	MsgQueryRequired = "search query is required"
	MsgRateLimited   = "search is temporarily unavailable, please try again shortly"
	MsgNotFound      = "game not found"
	MsgDetailFailed  = "failed to load game details"
	MsgInvalidID     = "a positive game id is required"
)

const defaultSuggestLimit = 8

// GameStore is the full upstream surface the service depends on:
// per-game details, the storefront's own search, and live player
// counts.
type GameStore interface {
	DetailFetcher
	PlayerCounter
	StoreSearch(ctx context.Context, term string, limit int) ([]domain.CatalogEntry, error)
}

// CatalogProvider yields the current catalog snapshot. Get never
// returns an error; an unavailable catalog arrives as an empty
// snapshot with Source none.
type CatalogProvider interface {
	Get(ctx context.Context) domain.Catalog
}

// Service answers search, detail, and discovery queries. It never
// returns a Go error across its boundary: every outcome is tagged with
// Success and, when false, a user-facing message.
type Service struct {
	catalog  CatalogProvider
	store    GameStore
	breaker  *Breaker
	enricher *Enricher
	selector *TrendingSelector
	logger   *slog.Logger
	now      func() time.Time

	cacheMu       sync.Mutex
	searchCache   map[string]*cachedSearch
	detailCache   map[int]*cachedDetail
	refreshing    map[string]bool
	redisCache    *RedisCacheBackend
	cacheTTL      time.Duration
	detailTTL     time.Duration
	cacheDisabled bool
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func WithRedisCache(backend *RedisCacheBackend) ServiceOption {
	return func(s *Service) { s.redisCache = backend }
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) { s.cacheDisabled = disabled }
}

func WithSelector(selector *TrendingSelector) ServiceOption {
	return func(s *Service) { s.selector = selector }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(catalog CatalogProvider, store GameStore, breaker *Breaker, enricher *Enricher, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:     catalog,
		store:       store,
		breaker:     breaker,
		enricher:    enricher,
		logger:      slog.Default(),
		now:         time.Now,
		searchCache: make(map[string]*cachedSearch),
		detailCache: make(map[int]*cachedDetail),
		refreshing:  make(map[string]bool),
		cacheTTL:    defaultSearchCacheTTL,
		detailTTL:   defaultDetailCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.selector == nil {
		s.selector = NewTrendingSelector(enricher, store, WithSelectorLogger(s.logger))
	}
	return s
}

// SearchGames resolves a query to a ranked, deduplicated, paginated
// page of enriched games. Zero matches with a healthy upstream is a
// successful empty page; an unreachable upstream with no curated
// answer is the one case reported as failure.
func (s *Service) SearchGames(ctx context.Context, query string, page, pageSize int) domain.SearchOutcome {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.SearchOutcome{Success: false, Games: []domain.GameDetail{}, Error: MsgQueryRequired}
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	now := s.now()
	key := buildSearchCacheKey(query, page, pageSize)
	if result, stale, ok := s.cacheLookup(key, now); ok {
		if stale {
			s.refreshSearchAsync(key, query, page, pageSize)
		}
		return successOutcome(result)
	}

	result, ok := s.searchLive(ctx, query, page, pageSize)
	if !ok {
		return s.fallbackOutcome(query, page, pageSize)
	}
	if result.TotalResults > 0 {
		s.cacheStore(key, result, now)
	}
	return successOutcome(result)
}

// searchLive runs the match, enrich, dedupe, rank, paginate pipeline
// without consulting the cache. Returns false when live sourcing
// produced nothing usable and the caller should fall back.
func (s *Service) searchLive(ctx context.Context, query string, page, pageSize int) (domain.SearchResult, bool) {
	snapshot := s.catalog.Get(ctx)
	candidates, err := MatchCatalog(snapshot.Entries, query)
	if errors.Is(err, ErrNoCatalog) {
		// No catalog to match against; ask the storefront directly.
		candidates, err = s.store.StoreSearch(ctx, query, maxCandidates)
		if err != nil {
			s.logger.Warn("direct store search failed", "query", query, "error", err)
			return domain.SearchResult{}, false
		}
	}

	if len(candidates) == 0 {
		return Paginate(nil, page, pageSize), true
	}

	games := s.enricher.Enrich(ctx, candidates)
	if len(games) == 0 {
		// Candidates existed but nothing could be enriched; the
		// upstream is refusing us.
		return domain.SearchResult{}, false
	}

	games = Dedupe(games)
	Rank(games)
	return Paginate(games, page, pageSize), true
}

// fallbackOutcome serves curated matches when live sourcing failed.
// With no curated match either, an open breaker is surfaced as a
// rate-limit failure and anything else as an empty success.
func (s *Service) fallbackOutcome(query string, page, pageSize int) domain.SearchOutcome {
	if curated := MatchCurated(query); len(curated) > 0 {
		Rank(curated)
		return successOutcome(Paginate(curated, page, pageSize))
	}
	if s.breaker.State() == BreakerOpen {
		return domain.SearchOutcome{Success: false, Games: []domain.GameDetail{}, Error: MsgRateLimited}
	}
	return successOutcome(Paginate(nil, page, pageSize))
}

func successOutcome(result domain.SearchResult) domain.SearchOutcome {
	games := result.Games
	if games == nil {
		games = []domain.GameDetail{}
	}
	return domain.SearchOutcome{
		Success:      true,
		Games:        games,
		TotalResults: result.TotalResults,
		CurrentPage:  result.CurrentPage,
		TotalPages:   result.TotalPages,
	}
}

// GameDetails loads one enriched game by id.
func (s *Service) GameDetails(ctx context.Context, id int) domain.DetailOutcome {
	if id <= 0 {
		return domain.DetailOutcome{Success: false, Error: MsgInvalidID}
	}

	now := s.now()
	if game, ok := s.detailLookup(ctx, id, now); ok {
		return domain.DetailOutcome{Success: true, Game: &game}
	}

	game, err := s.enricher.EnrichOne(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return domain.DetailOutcome{Success: false, Error: MsgNotFound}
		case errors.Is(err, domain.ErrRateLimited):
			return domain.DetailOutcome{Success: false, Error: MsgRateLimited}
		default:
			s.logger.Warn("detail load failed", "appID", id, "error", err)
			return domain.DetailOutcome{Success: false, Error: MsgDetailFailed}
		}
	}
	if !Playable(game.Kind) {
		return domain.DetailOutcome{Success: false, Error: MsgNotFound}
	}

	if count, err := s.store.CurrentPlayers(ctx, id); err == nil {
		game.CurrentPlayers = count
	}

	s.detailStore(ctx, *game, now)
	return domain.DetailOutcome{Success: true, Game: game}
}

// TrendingGames always succeeds; the selector guarantees the surface.
func (s *Service) TrendingGames(ctx context.Context, limit int) domain.ListOutcome {
	games := s.selector.Select(ctx, ListTrending, limit)
	if games == nil {
		games = []domain.GameDetail{}
	}
	return domain.ListOutcome{Success: true, Games: games}
}

// RecentGames always succeeds; the selector guarantees the surface.
func (s *Service) RecentGames(ctx context.Context, limit int) domain.ListOutcome {
	games := s.selector.Select(ctx, ListRecent, limit)
	if games == nil {
		games = []domain.GameDetail{}
	}
	return domain.ListOutcome{Success: true, Games: games}
}

// SearchSuggestions returns lightweight name completions from the
// catalog, falling back to the storefront search when no catalog is
// loaded. Failures degrade to an empty suggestion list.
func (s *Service) SearchSuggestions(ctx context.Context, query string, limit int) domain.SuggestOutcome {
	out := domain.SuggestOutcome{Success: true, Suggestions: []domain.Suggestion{}}

	query = strings.TrimSpace(query)
	if query == "" {
		return out
	}
	if limit < 1 || limit > defaultSuggestLimit*2 {
		limit = defaultSuggestLimit
	}

	snapshot := s.catalog.Get(ctx)
	candidates, err := MatchCatalog(snapshot.Entries, query)
	if errors.Is(err, ErrNoCatalog) {
		candidates, err = s.store.StoreSearch(ctx, query, limit)
		if err != nil {
			s.logger.Debug("suggestion lookup failed", "query", query, "error", err)
			return out
		}
	}

	for _, entry := range candidates {
		if len(out.Suggestions) >= limit {
			break
		}
		out.Suggestions = append(out.Suggestions, domain.Suggestion{ID: entry.ID, Name: entry.Name})
	}
	return out
}
