package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gamehub/searchservice/internal/domain"
)

// backupFile is the on-disk cache shape. The provenance fields record
// which source produced the list and when, so a restart can judge
// freshness without re-downloading.
type backupFile struct {
	Source       string                `json:"source"`
	DownloadedAt time.Time             `json:"downloadedAt"`
	AppCount     int                   `json:"appCount"`
	Apps         []domain.CatalogEntry `json:"apps"`
}

// readBackup loads the on-disk catalog backup. A missing, malformed or
// empty file reports ok=false and the caller moves on to the network
// sources.
func (s *Store) readBackup() (domain.Catalog, time.Duration, bool) {
	if s.backupPath == "" {
		return domain.Catalog{}, 0, false
	}

	payload, err := os.ReadFile(s.backupPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("catalog backup unreadable", slog.String("path", s.backupPath), slog.String("error", err.Error()))
		}
		return domain.Catalog{}, 0, false
	}

	var file backupFile
	if err := json.Unmarshal(payload, &file); err != nil {
		s.logger.Warn("catalog backup malformed, ignoring", slog.String("path", s.backupPath), slog.String("error", err.Error()))
		return domain.Catalog{}, 0, false
	}

	entries := validEntries(file.Apps)
	if len(entries) == 0 {
		return domain.Catalog{}, 0, false
	}

	fetchedAt := file.DownloadedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.now()
	}
	catalog := domain.Catalog{
		Entries:   entries,
		Source:    domain.CatalogSourceBackup,
		FetchedAt: fetchedAt,
	}
	return catalog, s.now().Sub(fetchedAt), true
}

// persist writes the snapshot to disk. Write failures are logged and
// swallowed: the catalog stays in-memory only for this process run.
func (s *Store) persist(catalog domain.Catalog) {
	if s.backupPath == "" {
		return
	}

	payload, err := json.Marshal(backupFile{
		Source:       string(catalog.Source),
		DownloadedAt: catalog.FetchedAt,
		AppCount:     len(catalog.Entries),
		Apps:         catalog.Entries,
	})
	if err != nil {
		s.logger.Warn("catalog backup marshal failed", slog.String("error", err.Error()))
		return
	}

	if dir := filepath.Dir(s.backupPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logger.Warn("catalog backup dir", slog.String("path", dir), slog.String("error", err.Error()))
			return
		}
	}

	// Write via temp file + rename so a crash mid-write never leaves a
	// truncated backup behind.
	tmp := s.backupPath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		s.logger.Warn("catalog backup write failed", slog.String("path", tmp), slog.String("error", err.Error()))
		return
	}
	if err := os.Rename(tmp, s.backupPath); err != nil {
		s.logger.Warn("catalog backup rename failed", slog.String("path", s.backupPath), slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("catalog backup written",
		slog.String("path", s.backupPath),
		slog.Int("entries", len(catalog.Entries)),
	)
}
