package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gamehub/searchservice/internal/domain"
)

type fakePlayers struct {
	counts map[int]int
}

func (f *fakePlayers) CurrentPlayers(ctx context.Context, id int) (int, error) {
	if count, ok := f.counts[id]; ok {
		return count, nil
	}
	return 0, domain.ErrNotFound
}

// releasedRecord builds a game record released the given number of
// months before ref.
func releasedRecord(id int, ref time.Time, monthsAgo int) domain.StoreRecord {
	released := ref.AddDate(0, -monthsAgo, 0)
	return domain.StoreRecord{
		ID:          id,
		Name:        fmt.Sprintf("Game %d", id),
		Type:        "game",
		ReleaseDate: released.Format("2 Jan, 2006"),
	}
}

func identityShuffle(ids []int) {}

func newTestSelector(records map[int]domain.StoreRecord, players *fakePlayers, pool []int, ref time.Time, opts ...SelectorOption) *TrendingSelector {
	fetcher := &fakeFetcher{records: records}
	enricher := newTestEnricher(fetcher, NewBreaker(DefaultBreakerConfig()))
	base := []SelectorOption{
		WithPool(pool),
		WithSelectorClock(func() time.Time { return ref }),
		WithShuffle(identityShuffle),
	}
	return NewTrendingSelector(enricher, players, append(base, opts...)...)
}

func TestTrendingPrefersNarrowWindow(t *testing.T) {
	ref := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	records := map[int]domain.StoreRecord{}
	pool := make([]int, 0, 12)
	// Six games inside six months, six older.
	for id := 1; id <= 6; id++ {
		records[id] = releasedRecord(id, ref, 2)
		pool = append(pool, id)
	}
	for id := 7; id <= 12; id++ {
		records[id] = releasedRecord(id, ref, 10)
		pool = append(pool, id)
	}
	selector := newTestSelector(records, &fakePlayers{}, pool, ref)

	games := selector.Select(context.Background(), ListTrending, 5)
	if len(games) != 5 {
		t.Fatalf("expected 5 games, got %d", len(games))
	}
	for _, game := range games {
		if game.ID > 6 {
			t.Errorf("game %d from outside the 6-month window selected while the window could fill", game.ID)
		}
	}
}

func TestTrendingWidensWindowThenFillsFromCurated(t *testing.T) {
	ref := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	// Only three games, all 8 months old: the 6-month window is empty,
	// the 12-month window has all three.
	records := map[int]domain.StoreRecord{
		1: releasedRecord(1, ref, 8),
		2: releasedRecord(2, ref, 8),
		3: releasedRecord(3, ref, 8),
	}
	selector := newTestSelector(records, &fakePlayers{}, []int{1, 2, 3}, ref)

	games := selector.Select(context.Background(), ListTrending, 5)
	if len(games) != 5 {
		t.Fatalf("expected curated fill to 5, got %d", len(games))
	}
	windowed := 0
	seen := map[int]int{}
	for _, game := range games {
		seen[game.ID]++
		if game.ID <= 3 {
			windowed++
		}
	}
	if windowed != 3 {
		t.Errorf("expected 3 windowed games, got %d", windowed)
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("game %d appears %d times", id, count)
		}
	}
}

func TestTrendingOrdersByReleaseThenPlayers(t *testing.T) {
	ref := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	sameDay := releasedRecord(0, ref, 1).ReleaseDate
	records := map[int]domain.StoreRecord{
		1: {ID: 1, Name: "Older", Type: "game", ReleaseDate: ref.AddDate(0, -3, 0).Format("2 Jan, 2006")},
		2: {ID: 2, Name: "Quiet", Type: "game", ReleaseDate: sameDay},
		3: {ID: 3, Name: "Busy", Type: "game", ReleaseDate: sameDay},
	}
	players := &fakePlayers{counts: map[int]int{2: 100, 3: 90000}}
	selector := newTestSelector(records, players, []int{1, 2, 3}, ref)

	games := selector.Select(context.Background(), ListTrending, 3)
	if len(games) != 3 {
		t.Fatalf("expected 3 games, got %d", len(games))
	}
	want := []string{"Busy", "Quiet", "Older"}
	for i, name := range want {
		if games[i].Name != name {
			t.Errorf("games[%d] = %q, want %q", i, games[i].Name, name)
		}
	}
}

func TestRecentSkipsUnreleased(t *testing.T) {
	ref := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	records := map[int]domain.StoreRecord{
		1: {ID: 1, Name: "Out Now", Type: "game", ReleaseDate: ref.AddDate(0, -1, 0).Format("2 Jan, 2006")},
		2: {ID: 2, Name: "Someday", Type: "game", ReleaseDate: "Coming soon", ComingSoon: true},
		3: {ID: 3, Name: "Last Year", Type: "game", ReleaseDate: ref.AddDate(0, -13, 0).Format("2 Jan, 2006")},
	}
	selector := newTestSelector(records, &fakePlayers{}, []int{1, 2, 3}, ref, WithCurated(nil))

	games := selector.Select(context.Background(), ListRecent, 3)
	if len(games) != 2 {
		t.Fatalf("expected 2 released games, got %d", len(games))
	}
	if games[0].Name != "Out Now" || games[1].Name != "Last Year" {
		t.Fatalf("recent order wrong: %v, %v", games[0].Name, games[1].Name)
	}
	for _, game := range games {
		if game.Name == "Someday" {
			t.Error("unreleased game in recent list")
		}
	}
}

func TestTrendingGuaranteedWhenEnrichmentFails(t *testing.T) {
	ref := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	selector := newTestSelector(map[int]domain.StoreRecord{}, &fakePlayers{}, []int{1, 2, 3}, ref)

	games := selector.Select(context.Background(), ListTrending, 5)
	if len(games) != 5 {
		t.Fatalf("expected curated games to guarantee the surface, got %d", len(games))
	}
}
