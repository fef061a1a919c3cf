package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gamehub/searchservice/internal/domain"
)

// DetailFetcher loads the full store record for a single catalog entry.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id int) (domain.StoreRecord, error)
}

const (
	defaultEnrichBatchSize  = 5
	defaultEnrichBatchDelay = 200 * time.Millisecond
)

// Enricher turns catalog entries into full game details by fetching
// records in fixed-size concurrent batches, pausing between batches to
// stay under the upstream's rate limits. Every fetch is gated by the
// circuit breaker; once the breaker rejects a call the remaining
// entries are skipped and whatever was enriched so far is returned.
type Enricher struct {
	fetcher    DetailFetcher
	breaker    *Breaker
	retry      RetryConfig
	batchSize  int
	batchDelay time.Duration
	logger     *slog.Logger
}

type EnricherOption func(*Enricher)

func WithBatchSize(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithBatchDelay(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d >= 0 {
			e.batchDelay = d
		}
	}
}

func WithRetryConfig(cfg RetryConfig) EnricherOption {
	return func(e *Enricher) { e.retry = cfg }
}

func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) { e.logger = logger }
}

func NewEnricher(fetcher DetailFetcher, breaker *Breaker, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		fetcher:    fetcher,
		breaker:    breaker,
		retry:      DefaultRetryConfig(),
		batchSize:  defaultEnrichBatchSize,
		batchDelay: defaultEnrichBatchDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich fetches details for entries, preserving catalog order, and
// drops entries that fail to load or turn out not to be games. The
// result is partial rather than an error: a half-enriched page beats
// no page.
func (e *Enricher) Enrich(ctx context.Context, entries []domain.CatalogEntry) []domain.GameDetail {
	results := make([]*domain.GameDetail, len(entries))
	var tripped atomic.Bool

	for start := 0; start < len(entries); start += e.batchSize {
		if tripped.Load() || ctx.Err() != nil {
			break
		}
		if start > 0 && e.batchDelay > 0 {
			timer := time.NewTimer(e.batchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return compact(results)
			case <-timer.C:
			}
		}

		end := start + e.batchSize
		if end > len(entries) {
			end = len(entries)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int, entry domain.CatalogEntry) {
				defer wg.Done()
				if tripped.Load() {
					return
				}
				if !e.breaker.Allow() {
					tripped.Store(true)
					return
				}
				detail, err := e.enrichOne(ctx, entry.ID)
				if err != nil {
					e.logger.Debug("detail fetch dropped",
						"appID", entry.ID, "name", entry.Name, "error", err)
					return
				}
				if !Playable(detail.Kind) {
					e.logger.Debug("non-game record dropped",
						"appID", entry.ID, "name", entry.Name, "kind", detail.Kind)
					return
				}
				results[idx] = detail
			}(i, entries[i])
		}
		wg.Wait()
	}
	return compact(results)
}

// EnrichOne fetches and normalizes a single record through the same
// breaker and retry path as batch enrichment.
func (e *Enricher) EnrichOne(ctx context.Context, id int) (*domain.GameDetail, error) {
	if !e.breaker.Allow() {
		return nil, domain.ErrRateLimited
	}
	return e.enrichOne(ctx, id)
}

func (e *Enricher) enrichOne(ctx context.Context, id int) (*domain.GameDetail, error) {
	var record domain.StoreRecord
	err := RetryWithBackoff(ctx, e.retry, func() error {
		var fetchErr error
		record, fetchErr = e.fetcher.FetchDetail(ctx, id)
		return fetchErr
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			e.breaker.OnFailure()
		case isTransientError(err):
			// Retries exhausted; the upstream is not answering.
			e.breaker.OnFailure()
		}
		return nil, fmt.Errorf("fetch detail %d: %w", id, err)
	}
	e.breaker.OnSuccess()
	detail := normalizeRecord(record)
	return &detail, nil
}

func compact(results []*domain.GameDetail) []domain.GameDetail {
	out := make([]domain.GameDetail, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
