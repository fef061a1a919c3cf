package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gamehub/searchservice/internal/domain"
)

type fakeCatalog struct {
	snapshot domain.Catalog
}

func (f *fakeCatalog) Get(ctx context.Context) domain.Catalog {
	return f.snapshot
}

// fakeStore implements GameStore on top of fakeFetcher, with optional
// storefront search results.
type fakeStore struct {
	fakeFetcher
	storeSearch      []domain.CatalogEntry
	storeSearchErr   error
	storeSearchCalls atomic.Int32
	players          map[int]int
}

func (f *fakeStore) StoreSearch(ctx context.Context, term string, limit int) ([]domain.CatalogEntry, error) {
	f.storeSearchCalls.Add(1)
	if f.storeSearchErr != nil {
		return nil, f.storeSearchErr
	}
	return f.storeSearch, nil
}

func (f *fakeStore) CurrentPlayers(ctx context.Context, id int) (int, error) {
	if count, ok := f.players[id]; ok {
		return count, nil
	}
	return 0, domain.ErrNotFound
}

func catalogWith(names ...string) domain.Catalog {
	return domain.Catalog{
		Entries:   entries(names...),
		Source:    domain.CatalogSourcePrimary,
		FetchedAt: time.Now(),
	}
}

func newTestService(catalog domain.Catalog, store *fakeStore, breaker *Breaker, opts ...ServiceOption) *Service {
	enricher := newTestEnricher(&store.fakeFetcher, breaker)
	return NewService(&fakeCatalog{snapshot: catalog}, store, breaker, enricher, opts...)
}

func TestSearchGamesHappyPath(t *testing.T) {
	store := &fakeStore{
		fakeFetcher: fakeFetcher{records: map[int]domain.StoreRecord{
			1: gameRecord(1, "Portal"),
			2: gameRecord(2, "Portal 2"),
		}},
	}
	svc := newTestService(catalogWith("Portal", "Portal 2"), store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.SearchGames(context.Background(), "portal", 1, 20)
	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if outcome.TotalResults != 2 || len(outcome.Games) != 2 {
		t.Fatalf("expected 2 games, got %+v", outcome)
	}
	if outcome.CurrentPage != 1 || outcome.TotalPages != 1 {
		t.Fatalf("pagination wrong: %+v", outcome)
	}
}

func TestSearchGamesEmptyQuery(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(catalogWith("Portal"), store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.SearchGames(context.Background(), "   ", 1, 20)
	if outcome.Success {
		t.Fatal("expected failure for empty query")
	}
	if outcome.Error != MsgQueryRequired {
		t.Fatalf("error = %q, want %q", outcome.Error, MsgQueryRequired)
	}
}

func TestSearchGamesZeroMatchesIsSuccess(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(catalogWith("Portal", "Half-Life"), store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.SearchGames(context.Background(), "zzzzqqqq", 1, 20)
	if !outcome.Success {
		t.Fatalf("zero matches should succeed, got error %q", outcome.Error)
	}
	if len(outcome.Games) != 0 || outcome.Games == nil {
		t.Fatalf("expected empty non-nil games slice, got %+v", outcome.Games)
	}
	if outcome.TotalPages != 1 || outcome.CurrentPage != 1 {
		t.Fatalf("empty page malformed: %+v", outcome)
	}
}

func TestSearchGamesOpenBreakerReportsRateLimited(t *testing.T) {
	store := &fakeStore{}
	breaker := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	breaker.OnFailure()
	svc := newTestService(catalogWith("Obscuria IX"), store, breaker)

	outcome := svc.SearchGames(context.Background(), "obscuria", 1, 20)
	if outcome.Success {
		t.Fatal("expected failure when breaker is open and nothing curated matches")
	}
	if outcome.Error != MsgRateLimited {
		t.Fatalf("error = %q, want %q", outcome.Error, MsgRateLimited)
	}
}

func TestSearchGamesCuratedFallbackRespectsQuery(t *testing.T) {
	store := &fakeStore{}
	breaker := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	breaker.OnFailure()
	svc := newTestService(catalogWith("Stardew Valley"), store, breaker)

	outcome := svc.SearchGames(context.Background(), "stardew", 1, 20)
	if !outcome.Success {
		t.Fatalf("expected curated fallback, got error %q", outcome.Error)
	}
	if len(outcome.Games) != 1 || outcome.Games[0].Name != "Stardew Valley" {
		t.Fatalf("expected curated Stardew Valley, got %+v", outcome.Games)
	}
}

func TestSearchGamesDirectStoreSearchWithoutCatalog(t *testing.T) {
	store := &fakeStore{
		fakeFetcher: fakeFetcher{records: map[int]domain.StoreRecord{
			7: gameRecord(7, "Hades"),
		}},
		storeSearch: []domain.CatalogEntry{{ID: 7, Name: "Hades"}},
	}
	svc := newTestService(domain.Catalog{Source: domain.CatalogSourceNone}, store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.SearchGames(context.Background(), "hades", 1, 20)
	if !outcome.Success {
		t.Fatalf("expected success via direct store search, got %q", outcome.Error)
	}
	if store.storeSearchCalls.Load() == 0 {
		t.Fatal("store search was not consulted despite missing catalog")
	}
	if len(outcome.Games) != 1 || outcome.Games[0].Name != "Hades" {
		t.Fatalf("unexpected games: %+v", outcome.Games)
	}
}

func TestSearchGamesCachesResults(t *testing.T) {
	store := &fakeStore{
		fakeFetcher: fakeFetcher{records: map[int]domain.StoreRecord{
			1: gameRecord(1, "Portal"),
		}},
	}
	svc := newTestService(catalogWith("Portal"), store, NewBreaker(DefaultBreakerConfig()))

	first := svc.SearchGames(context.Background(), "portal", 1, 20)
	if !first.Success {
		t.Fatalf("first search failed: %q", first.Error)
	}
	fetches := store.calls.Load()

	second := svc.SearchGames(context.Background(), "Portal", 1, 20)
	if !second.Success {
		t.Fatalf("second search failed: %q", second.Error)
	}
	if store.calls.Load() != fetches {
		t.Fatal("cached query hit the upstream again")
	}
}

func TestSearchGamesServesStaleAndRefreshesInBackground(t *testing.T) {
	store := &fakeStore{
		fakeFetcher: fakeFetcher{records: map[int]domain.StoreRecord{
			1: gameRecord(1, "Portal"),
		}},
	}
	var clockMu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	svc := newTestService(catalogWith("Portal"), store, NewBreaker(DefaultBreakerConfig()), WithClock(clock))

	first := svc.SearchGames(context.Background(), "portal", 1, 20)
	if !first.Success {
		t.Fatalf("first search failed: %q", first.Error)
	}
	fetches := store.calls.Load()

	// Past the TTL but inside the stale window: the expired entry is
	// still served immediately.
	clockMu.Lock()
	now = now.Add(defaultSearchCacheTTL + time.Minute)
	clockMu.Unlock()

	second := svc.SearchGames(context.Background(), "portal", 1, 20)
	if !second.Success || len(second.Games) != 1 {
		t.Fatalf("stale entry not served: %+v", second)
	}

	// The stale hit schedules a background refresh that re-fetches.
	deadline := time.Now().Add(2 * time.Second)
	for store.calls.Load() == fetches {
		if time.Now().After(deadline) {
			t.Fatal("stale entry never triggered a background refresh")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCacheLookupStaleWindow(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(catalogWith(), store, NewBreaker(DefaultBreakerConfig()))

	now := time.Now()
	key := buildSearchCacheKey("portal", 1, 20)
	svc.cacheStoreMemoryOnly(key, domain.SearchResult{TotalResults: 1}, now)

	if _, stale, ok := svc.cacheLookup(key, now.Add(time.Minute)); !ok || stale {
		t.Fatalf("fresh entry: stale=%v ok=%v, want stale=false ok=true", stale, ok)
	}
	if _, stale, ok := svc.cacheLookup(key, now.Add(svc.cacheTTL+time.Minute)); !ok || !stale {
		t.Fatalf("expired entry inside stale window: stale=%v ok=%v, want both true", stale, ok)
	}
	past := now.Add(svc.cacheTTL + searchCacheStaleWindow + time.Minute)
	if _, _, ok := svc.cacheLookup(key, past); ok {
		t.Fatal("entry past the stale window should miss")
	}
}

func TestSearchGamesDeduplicatesAndRanks(t *testing.T) {
	withImage := gameRecord(2, "Celeste")
	withImage.HeaderImage = "https://example.com/celeste.jpg"
	store := &fakeStore{
		fakeFetcher: fakeFetcher{records: map[int]domain.StoreRecord{
			1: gameRecord(1, "Celestial Command"),
			2: withImage,
			3: gameRecord(3, "Celeste: Farewell Edition"),
		}},
	}
	svc := newTestService(catalogWith("Celestial Command", "Celeste", "Celeste: Farewell Edition"), store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.SearchGames(context.Background(), "celest", 1, 20)
	if !outcome.Success {
		t.Fatalf("search failed: %q", outcome.Error)
	}
	if len(outcome.Games) != 2 {
		t.Fatalf("expected duplicate edition collapsed, got %+v", outcome.Games)
	}
	if outcome.Games[0].Name != "Celeste" {
		t.Errorf("game with artwork should rank first, got %q", outcome.Games[0].Name)
	}
}

func TestGameDetailsNotFound(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(catalogWith(), store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.GameDetails(context.Background(), 999)
	if outcome.Success {
		t.Fatal("expected failure for unknown id")
	}
	if outcome.Error != MsgNotFound {
		t.Fatalf("error = %q, want %q", outcome.Error, MsgNotFound)
	}
}

func TestGameDetailsInvalidID(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(catalogWith(), store, NewBreaker(DefaultBreakerConfig()))

	if outcome := svc.GameDetails(context.Background(), 0); outcome.Success {
		t.Fatal("expected failure for id 0")
	}
	if outcome := svc.GameDetails(context.Background(), -5); outcome.Success {
		t.Fatal("expected failure for negative id")
	}
}

func TestGameDetailsAttachesPlayerCount(t *testing.T) {
	store := &fakeStore{
		fakeFetcher: fakeFetcher{records: map[int]domain.StoreRecord{
			570: gameRecord(570, "Dota 2"),
		}},
		players: map[int]int{570: 412345},
	}
	svc := newTestService(catalogWith(), store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.GameDetails(context.Background(), 570)
	if !outcome.Success || outcome.Game == nil {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.Game.CurrentPlayers != 412345 {
		t.Fatalf("player count = %d, want 412345", outcome.Game.CurrentPlayers)
	}
}

func TestGameDetailsCaches(t *testing.T) {
	store := &fakeStore{
		fakeFetcher: fakeFetcher{records: map[int]domain.StoreRecord{
			1: gameRecord(1, "Portal"),
		}},
	}
	svc := newTestService(catalogWith(), store, NewBreaker(DefaultBreakerConfig()))

	if outcome := svc.GameDetails(context.Background(), 1); !outcome.Success {
		t.Fatalf("first load failed: %+v", outcome)
	}
	fetches := store.calls.Load()
	if outcome := svc.GameDetails(context.Background(), 1); !outcome.Success {
		t.Fatalf("second load failed: %+v", outcome)
	}
	if store.calls.Load() != fetches {
		t.Fatal("cached detail hit the upstream again")
	}
}

func TestGameDetailsRateLimitedWhenBreakerOpen(t *testing.T) {
	store := &fakeStore{}
	breaker := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	breaker.OnFailure()
	svc := newTestService(catalogWith(), store, breaker)

	outcome := svc.GameDetails(context.Background(), 42)
	if outcome.Success {
		t.Fatal("expected failure")
	}
	if outcome.Error != MsgRateLimited {
		t.Fatalf("error = %q, want %q", outcome.Error, MsgRateLimited)
	}
}

func TestSearchSuggestions(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(catalogWith(
		"Portal", "Portal 2", "Portal Stories: Mel", "Portal Knights",
		"Portal Reloaded", "Portal Prelude", "Portalia", "Portal Dungeon",
		"Portal Maze", "Portal Hero",
	), store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.SearchSuggestions(context.Background(), "portal", 0)
	if !outcome.Success {
		t.Fatal("suggestions should always succeed")
	}
	if len(outcome.Suggestions) != defaultSuggestLimit {
		t.Fatalf("expected %d suggestions, got %d", defaultSuggestLimit, len(outcome.Suggestions))
	}
	if outcome.Suggestions[0].Name != "Portal" {
		t.Fatalf("best match first, got %q", outcome.Suggestions[0].Name)
	}
}

func TestSearchSuggestionsEmptyQuery(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(catalogWith("Portal"), store, NewBreaker(DefaultBreakerConfig()))

	outcome := svc.SearchSuggestions(context.Background(), "", 5)
	if !outcome.Success || len(outcome.Suggestions) != 0 {
		t.Fatalf("expected empty success, got %+v", outcome)
	}
}
