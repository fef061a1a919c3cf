package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"gamehub/searchservice/internal/domain"
	"gamehub/searchservice/internal/metrics"
)

const (
	defaultSearchCacheTTL = 10 * time.Minute
	defaultDetailCacheTTL = 30 * time.Minute

	// Expired search entries stay servable for this long while a
	// background refresh replaces them.
	searchCacheStaleWindow = 5 * time.Minute
	searchRefreshTimeout   = 30 * time.Second

	searchCacheMaxEntries = 400
	detailCacheMaxEntries = 1000
)

type cachedSearch struct {
	result    domain.SearchResult
	updatedAt time.Time
	expiresAt time.Time
}

type cachedDetail struct {
	game      domain.GameDetail
	updatedAt time.Time
	expiresAt time.Time
}

func buildSearchCacheKey(query string, page, pageSize int) string {
	return strings.Join([]string{
		"q=" + normalizeQuery(query),
		"p=" + strconv.Itoa(page),
		"ps=" + strconv.Itoa(pageSize),
	}, "|")
}

// cacheLookup returns a cached search result. An entry past its TTL
// but within the stale window is still returned, with stale set so the
// caller can schedule a background refresh.
func (s *Service) cacheLookup(key string, now time.Time) (result domain.SearchResult, stale, ok bool) {
	if s.cacheDisabled {
		return domain.SearchResult{}, false, false
	}

	// Try Redis first; a hit backfills the memory level.
	if s.redisCache != nil {
		result, found, err := s.redisCache.Get(context.Background(), key)
		if err == nil && found {
			metrics.CacheHitsTotal.Inc()
			s.cacheStoreMemoryOnly(key, result, now)
			return result, false, true
		}
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, found := s.searchCache[key]
	if !found || now.After(entry.expiresAt.Add(searchCacheStaleWindow)) {
		if found {
			delete(s.searchCache, key)
		}
		metrics.CacheMissesTotal.Inc()
		return domain.SearchResult{}, false, false
	}
	metrics.CacheHitsTotal.Inc()
	return cloneSearchResult(entry.result), now.After(entry.expiresAt), true
}

// refreshSearchAsync reruns the live search pipeline for a stale cache
// entry in the background. At most one refresh per key runs at a time.
func (s *Service) refreshSearchAsync(key, query string, page, pageSize int) {
	s.cacheMu.Lock()
	if s.refreshing[key] {
		s.cacheMu.Unlock()
		return
	}
	s.refreshing[key] = true
	s.cacheMu.Unlock()

	go func() {
		defer func() {
			s.cacheMu.Lock()
			delete(s.refreshing, key)
			s.cacheMu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), searchRefreshTimeout)
		defer cancel()

		result, ok := s.searchLive(ctx, query, page, pageSize)
		if !ok {
			s.logger.Debug("stale search refresh failed", "query", query)
			return
		}
		s.cacheStore(key, result, s.now())
	}()
}

func (s *Service) cacheStore(key string, result domain.SearchResult, now time.Time) {
	if s.cacheDisabled {
		return
	}
	if s.redisCache != nil {
		_ = s.redisCache.Set(context.Background(), key, result, s.cacheTTL)
	}
	s.cacheStoreMemoryOnly(key, result, now)
}

func (s *Service) cacheStoreMemoryOnly(key string, result domain.SearchResult, now time.Time) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.searchCache[key] = &cachedSearch{
		result:    cloneSearchResult(result),
		updatedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.trimSearchCacheLocked()
}

func (s *Service) detailLookup(ctx context.Context, id int, now time.Time) (domain.GameDetail, bool) {
	if s.cacheDisabled {
		return domain.GameDetail{}, false
	}

	if s.redisCache != nil {
		game, found, err := s.redisCache.GetDetail(ctx, id)
		if err == nil && found {
			metrics.CacheHitsTotal.Inc()
			return game, true
		}
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, ok := s.detailCache[id]
	if !ok || now.After(entry.expiresAt) {
		if ok {
			delete(s.detailCache, id)
		}
		metrics.CacheMissesTotal.Inc()
		return domain.GameDetail{}, false
	}
	metrics.CacheHitsTotal.Inc()
	return cloneGameDetail(entry.game), true
}

func (s *Service) detailStore(ctx context.Context, game domain.GameDetail, now time.Time) {
	if s.cacheDisabled {
		return
	}
	if s.redisCache != nil {
		_ = s.redisCache.SetDetail(ctx, game, s.detailTTL)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.detailCache[game.ID] = &cachedDetail{
		game:      cloneGameDetail(game),
		updatedAt: now,
		expiresAt: now.Add(s.detailTTL),
	}
	s.trimDetailCacheLocked()
}

// trimSearchCacheLocked evicts oldest entries first once the cache
// outgrows its bound. Caller holds cacheMu.
func (s *Service) trimSearchCacheLocked() {
	if len(s.searchCache) <= searchCacheMaxEntries {
		return
	}
	type pair struct {
		key   string
		entry *cachedSearch
	}
	items := make([]pair, 0, len(s.searchCache))
	for key, entry := range s.searchCache {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-searchCacheMaxEntries; i++ {
		delete(s.searchCache, items[i].key)
	}
}

func (s *Service) trimDetailCacheLocked() {
	if len(s.detailCache) <= detailCacheMaxEntries {
		return
	}
	type pair struct {
		id    int
		entry *cachedDetail
	}
	items := make([]pair, 0, len(s.detailCache))
	for id, entry := range s.detailCache {
		items = append(items, pair{id: id, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-detailCacheMaxEntries; i++ {
		delete(s.detailCache, items[i].id)
	}
}

func cloneSearchResult(result domain.SearchResult) domain.SearchResult {
	cloned := result
	if result.Games != nil {
		cloned.Games = make([]domain.GameDetail, len(result.Games))
		for i, game := range result.Games {
			cloned.Games[i] = cloneGameDetail(game)
		}
	}
	return cloned
}

func cloneGameDetail(game domain.GameDetail) domain.GameDetail {
	cloned := game
	if game.Rating != nil {
		value := *game.Rating
		cloned.Rating = &value
	}
	if game.MetacriticScore != nil {
		value := *game.MetacriticScore
		cloned.MetacriticScore = &value
	}
	if game.Release.Timestamp != nil {
		value := *game.Release.Timestamp
		cloned.Release.Timestamp = &value
	}
	cloned.Developers = append([]string(nil), game.Developers...)
	cloned.Publishers = append([]string(nil), game.Publishers...)
	cloned.Platforms = append([]string(nil), game.Platforms...)
	cloned.Genres = append([]string(nil), game.Genres...)
	cloned.Screenshots = append([]string(nil), game.Screenshots...)
	return cloned
}
