package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gamehub/searchservice/internal/domain"
	"gamehub/searchservice/internal/metrics"
)

const maxBody = 32 * 1024 * 1024

type Config struct {
	Name      string
	Endpoint  string
	Kind      domain.CatalogSource
	UserAgent string
	Client    *http.Client
}

// Provider fetches the app catalog from a community-maintained mirror.
// Mirrors serve either a bare JSON array of {appid,name} rows or the
// primary API's {"applist":{"apps":[...]}} envelope; both are accepted.
type Provider struct {
	client    *http.Client
	name      string
	endpoint  string
	kind      domain.CatalogSource
	userAgent string
}

func NewProvider(cfg Config) *Provider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "mirror"
	}
	kind := cfg.Kind
	if kind == "" {
		kind = domain.CatalogSourceSecondary
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = "gamehub-search/1.0"
	}
	return &Provider{
		client:    client,
		name:      name,
		endpoint:  strings.TrimSpace(cfg.Endpoint),
		kind:      kind,
		userAgent: userAgent,
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Kind() domain.CatalogSource { return p.kind }

func (p *Provider) FetchCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	if p.endpoint == "" {
		return nil, fmt.Errorf("mirror %s: no endpoint configured", p.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	startedAt := time.Now()
	resp, err := p.client.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues("mirror").Observe(time.Since(startedAt).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("mirror", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestsTotal.WithLabelValues("mirror", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: mirror %s HTTP %d: %s", domain.ErrUpstreamStatus, p.name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("mirror", "ok").Inc()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	return parseCatalog(payload)
}

type mirrorRow struct {
	AppID int    `json:"appid"`
	Name  string `json:"name"`
}

func parseCatalog(payload []byte) ([]domain.CatalogEntry, error) {
	var rows []mirrorRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		var envelope struct {
			AppList struct {
				Apps []mirrorRow `json:"apps"`
			} `json:"applist"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("%w: mirror catalog: %v", domain.ErrMalformedResponse, err)
		}
		rows = envelope.AppList.Apps
	}

	entries := make([]domain.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if row.AppID <= 0 || name == "" {
			continue
		}
		entries = append(entries, domain.CatalogEntry{ID: row.AppID, Name: name})
	}
	return entries, nil
}
