package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gamehub/searchservice/internal/domain"
	"gamehub/searchservice/internal/search"
)

// SearchService is the tagged-outcome surface the handlers expose.
// Outcomes carry their own success flag; the handlers only translate
// them to status codes.
type SearchService interface {
	SearchGames(ctx context.Context, query string, page, pageSize int) domain.SearchOutcome
	GameDetails(ctx context.Context, id int) domain.DetailOutcome
	TrendingGames(ctx context.Context, limit int) domain.ListOutcome
	RecentGames(ctx context.Context, limit int) domain.ListOutcome
	SearchSuggestions(ctx context.Context, query string, limit int) domain.SuggestOutcome
}

// CatalogStatus reports the provenance of the current catalog snapshot.
type CatalogStatus interface {
	Status() (domain.CatalogSource, time.Time, int)
}

const maxQueryLength = 200

type Server struct {
	search  SearchService
	catalog CatalogStatus
	logger  *slog.Logger
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithCatalogStatus(catalog CatalogStatus) ServerOption {
	return func(s *Server) {
		s.catalog = catalog
	}
}

func NewServer(searchService SearchService, options ...ServerOption) *Server {
	server := &Server{
		search: searchService,
		logger: slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/search/suggest", s.handleSuggest)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/games/trending", s.handleTrending)
	mux.HandleFunc("/games/recent", s.handleRecent)
	mux.HandleFunc("/games/", s.handleGameDetails)
	mux.HandleFunc("/catalog/status", s.handleCatalogStatus)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "game-search",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 200 characters)")
		return
	}
	page, err := parsePositiveInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}
	pageSize, err := parsePositiveInt(r, "pageSize", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid pageSize")
		return
	}

	outcome := s.search.SearchGames(r.Context(), query, page, pageSize)
	if !outcome.Success {
		s.logger.Warn("search degraded",
			slog.String("query", truncate(query, 80)),
			slog.String("reason", outcome.Error),
		)
		writeJSON(w, http.StatusServiceUnavailable, outcome)
		return
	}

	s.logger.Info("search completed",
		slog.String("query", truncate(query, 80)),
		slog.Int("totalResults", outcome.TotalResults),
		slog.Int("page", outcome.CurrentPage),
	)
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleGameDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/games/")
	if raw == "" || strings.Contains(raw, "/") {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid game id")
		return
	}

	outcome := s.search.GameDetails(r.Context(), id)
	if !outcome.Success {
		switch outcome.Error {
		case search.MsgNotFound:
			writeJSON(w, http.StatusNotFound, outcome)
		case search.MsgRateLimited:
			writeJSON(w, http.StatusServiceUnavailable, outcome)
		default:
			writeJSON(w, http.StatusBadGateway, outcome)
		}
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, "/games/trending", s.search.TrendingGames)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, "/games/recent", s.search.RecentGames)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, path string, list func(context.Context, int) domain.ListOutcome) {
	if r.URL.Path != path {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit, err := parsePositiveInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	writeJSON(w, http.StatusOK, list(r.Context(), limit))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/suggest" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 200 characters)")
		return
	}
	limit, err := parsePositiveInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	writeJSON(w, http.StatusOK, s.search.SearchSuggestions(r.Context(), query, limit))
}

func (s *Server) handleCatalogStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusNotFound, "not_found", "catalog status is not available")
		return
	}

	source, fetchedAt, count := s.catalog.Status()
	payload := map[string]any{
		"source":  source,
		"entries": count,
	}
	if !fetchedAt.IsZero() {
		payload["fetchedAt"] = fetchedAt.UTC()
	}
	writeJSON(w, http.StatusOK, payload)
}

func parsePositiveInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid value")
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
