package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"gamehub/searchservice/internal/domain"
	"gamehub/searchservice/internal/metrics"
)

const (
	defaultTTL          = 24 * time.Hour
	defaultBackupMaxAge = 7 * 24 * time.Hour
	defaultLoadTimeout  = 30 * time.Second
)

// Source acquires the full catalog from one upstream location. Sources
// are tried in priority order; the first one returning at least one
// valid entry wins.
type Source interface {
	Name() string
	Kind() domain.CatalogSource
	FetchCatalog(ctx context.Context) ([]domain.CatalogEntry, error)
}

// Store owns the process-wide catalog snapshot. The snapshot is replaced
// atomically after a load fully succeeds; readers never observe a
// partially populated catalog. Loads are single-flighted so a cold cache
// under concurrent traffic triggers exactly one source resolution.
type Store struct {
	mu       sync.RWMutex
	snapshot *domain.Catalog

	sources      []Source
	backupPath   string
	ttl          time.Duration
	backupMaxAge time.Duration
	loadTimeout  time.Duration
	logger       *slog.Logger
	now          func() time.Time

	flight     singleflight.Group
	refreshing atomic.Bool
}

type Option func(*Store)

func WithBackupPath(path string) Option {
	return func(s *Store) { s.backupPath = path }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithBackupMaxAge(age time.Duration) Option {
	return func(s *Store) {
		if age > 0 {
			s.backupMaxAge = age
		}
	}
}

func WithLoadTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.loadTimeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(sources []Source, opts ...Option) *Store {
	store := &Store{
		sources:      sources,
		ttl:          defaultTTL,
		backupMaxAge: defaultBackupMaxAge,
		loadTimeout:  defaultLoadTimeout,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Get returns a usable catalog snapshot. A fresh snapshot is returned
// directly; a stale one is returned immediately while a refresh runs in
// the background; a cold store blocks on a single shared load. Get never
// fails: if every source is down it returns an empty catalog and callers
// fall back to direct per-query upstream search.
func (s *Store) Get(ctx context.Context) domain.Catalog {
	if snap, ok := s.current(); ok {
		if s.now().Sub(snap.FetchedAt) < s.ttl {
			return snap
		}
		s.refreshAsync()
		return snap
	}

	result, _, _ := s.flight.Do("catalog", func() (any, error) {
		return s.load(), nil
	})
	return result.(domain.Catalog)
}

// Status reports the current snapshot's provenance without triggering a
// load.
func (s *Store) Status() (domain.CatalogSource, time.Time, int) {
	snap, ok := s.current()
	if !ok {
		return domain.CatalogSourceNone, time.Time{}, 0
	}
	return snap.Source, snap.FetchedAt, len(snap.Entries)
}

func (s *Store) current() (domain.Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return domain.Catalog{}, false
	}
	return *s.snapshot, true
}

func (s *Store) swap(catalog domain.Catalog) {
	s.mu.Lock()
	s.snapshot = &catalog
	s.mu.Unlock()
	metrics.CatalogEntries.Set(float64(len(catalog.Entries)))
}

// refreshAsync kicks one background reload. It runs under its own
// singleflight key: refreshAsync can be called from inside the
// cold-load "catalog" flight, and sharing that key would let the
// refresh coalesce with the very load that requested it. The atomic
// flag avoids spawning a goroutine per stale read.
func (s *Store) refreshAsync() {
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.refreshing.Store(false)
		_, _, _ = s.flight.Do("refresh", func() (any, error) {
			return s.loadFromSources(), nil
		})
	}()
}

// load resolves the catalog on a cold store: disk backup first, then the
// network sources in priority order.
func (s *Store) load() domain.Catalog {
	if backup, age, ok := s.readBackup(); ok {
		s.swap(backup)
		if age > s.backupMaxAge {
			// Stale-while-revalidate: serve the old backup now, refresh
			// against the live sources without blocking this call.
			s.logger.Info("catalog backup is stale, refreshing in background",
				slog.Duration("age", age),
				slog.Int("entries", len(backup.Entries)),
			)
			s.refreshAsync()
		}
		return backup
	}
	return s.loadFromSources()
}

// loadFromSources walks the source priority chain. Failures advance to
// the next source; only when every source fails does the store fall back
// to whatever snapshot it already has, or an empty catalog.
func (s *Store) loadFromSources() domain.Catalog {
	ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
	defer cancel()

	for _, source := range s.sources {
		entries, err := source.FetchCatalog(ctx)
		if err != nil {
			metrics.CatalogLoadsTotal.WithLabelValues(source.Name(), "error").Inc()
			s.logger.Warn("catalog source failed",
				slog.String("source", source.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		entries = validEntries(entries)
		if len(entries) == 0 {
			metrics.CatalogLoadsTotal.WithLabelValues(source.Name(), "empty").Inc()
			s.logger.Warn("catalog source returned no valid entries", slog.String("source", source.Name()))
			continue
		}
		metrics.CatalogLoadsTotal.WithLabelValues(source.Name(), "ok").Inc()

		catalog := domain.Catalog{
			Entries:   entries,
			Source:    source.Kind(),
			FetchedAt: s.now(),
		}
		s.swap(catalog)
		s.persist(catalog)
		s.logger.Info("catalog loaded",
			slog.String("source", source.Name()),
			slog.Int("entries", len(entries)),
		)
		return catalog
	}

	if snap, ok := s.current(); ok {
		s.logger.Warn("all catalog sources failed, serving stale snapshot",
			slog.Int("entries", len(snap.Entries)),
			slog.Time("fetchedAt", snap.FetchedAt),
		)
		return snap
	}

	s.logger.Error("all catalog sources failed and no snapshot available")
	return domain.Catalog{Source: domain.CatalogSourceNone, FetchedAt: s.now()}
}

func validEntries(entries []domain.CatalogEntry) []domain.CatalogEntry {
	valid := entries[:0]
	for _, entry := range entries {
		if entry.ID <= 0 || strings.TrimSpace(entry.Name) == "" {
			continue
		}
		valid = append(valid, entry)
	}
	return valid
}
