package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamehub/searchservice/internal/domain"
	"gamehub/searchservice/internal/metrics"
)

const (
	defaultAPIEndpoint   = "https://api.steampowered.com"
	defaultStoreEndpoint = "https://store.steampowered.com/api"
	defaultUserAgent     = "gamehub-search/1.0"

	maxCatalogBody = 32 * 1024 * 1024
	maxDetailBody  = 4 * 1024 * 1024
)

type Config struct {
	APIEndpoint   string
	StoreEndpoint string
	UserAgent     string
	Client        *http.Client
}

// Client talks to the store's public web API: the bulk app list, the
// per-app detail endpoint, free-text store search and the best-effort
// concurrent-players endpoint.
type Client struct {
	client        *http.Client
	apiEndpoint   string
	storeEndpoint string
	userAgent     string
}

func NewClient(cfg Config) *Client {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	apiEndpoint := strings.TrimSpace(cfg.APIEndpoint)
	if apiEndpoint == "" {
		apiEndpoint = defaultAPIEndpoint
	}
	storeEndpoint := strings.TrimSpace(cfg.StoreEndpoint)
	if storeEndpoint == "" {
		storeEndpoint = defaultStoreEndpoint
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		client:        client,
		apiEndpoint:   strings.TrimRight(apiEndpoint, "/"),
		storeEndpoint: strings.TrimRight(storeEndpoint, "/"),
		userAgent:     userAgent,
	}
}

func (c *Client) Name() string { return "primary" }

func (c *Client) Kind() domain.CatalogSource { return domain.CatalogSourcePrimary }

type appListResponse struct {
	AppList struct {
		Apps []struct {
			AppID int    `json:"appid"`
			Name  string `json:"name"`
		} `json:"apps"`
	} `json:"applist"`
}

// FetchCatalog downloads the full app/name list. Entries missing an id
// or carrying an empty name are dropped during parsing.
func (c *Client) FetchCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	payload, err := c.get(ctx, "applist", c.apiEndpoint+"/ISteamApps/GetAppList/v2/", maxCatalogBody)
	if err != nil {
		return nil, err
	}

	var decoded appListResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: app list: %v", domain.ErrMalformedResponse, err)
	}

	entries := make([]domain.CatalogEntry, 0, len(decoded.AppList.Apps))
	for _, app := range decoded.AppList.Apps {
		name := strings.TrimSpace(app.Name)
		if app.AppID <= 0 || name == "" {
			continue
		}
		entries = append(entries, domain.CatalogEntry{ID: app.AppID, Name: name})
	}
	return entries, nil
}

type appDetailEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type appDetailData struct {
	Type             string   `json:"type"`
	Name             string   `json:"name"`
	AppID            int      `json:"steam_appid"`
	ShortDescription string   `json:"short_description"`
	AboutTheGame     string   `json:"about_the_game"`
	HeaderImage      string   `json:"header_image"`
	Background       string   `json:"background"`
	Website          string   `json:"website"`
	Developers       []string `json:"developers"`
	Publishers       []string `json:"publishers"`
	Platforms        struct {
		Windows bool `json:"windows"`
		Mac     bool `json:"mac"`
		Linux   bool `json:"linux"`
	} `json:"platforms"`
	Metacritic *struct {
		Score int `json:"score"`
	} `json:"metacritic"`
	Genres []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Screenshots []struct {
		PathFull string `json:"path_full"`
	} `json:"screenshots"`
	Recommendations struct {
		Total int `json:"total"`
	} `json:"recommendations"`
	ReleaseDate struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
}

// FetchDetail fetches and decodes one app's detail record into the
// canonical StoreRecord shape.
func (c *Client) FetchDetail(ctx context.Context, id int) (domain.StoreRecord, error) {
	uri := c.storeEndpoint + "/appdetails?appids=" + strconv.Itoa(id)
	payload, err := c.get(ctx, "appdetails", uri, maxDetailBody)
	if err != nil {
		return domain.StoreRecord{}, err
	}

	var envelope map[string]appDetailEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return domain.StoreRecord{}, fmt.Errorf("%w: app %d: %v", domain.ErrMalformedResponse, id, err)
	}
	entry, ok := envelope[strconv.Itoa(id)]
	if !ok || !entry.Success || len(entry.Data) == 0 {
		return domain.StoreRecord{}, fmt.Errorf("%w: app %d", domain.ErrNotFound, id)
	}

	var data appDetailData
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		return domain.StoreRecord{}, fmt.Errorf("%w: app %d: %v", domain.ErrMalformedResponse, id, err)
	}

	record := domain.StoreRecord{
		ID:                  data.AppID,
		Name:                strings.TrimSpace(data.Name),
		Type:                strings.ToLower(strings.TrimSpace(data.Type)),
		ShortDescription:    data.ShortDescription,
		LongDescription:     data.AboutTheGame,
		HeaderImage:         data.HeaderImage,
		BackgroundImage:     data.Background,
		Website:             data.Website,
		Developers:          data.Developers,
		Publishers:          data.Publishers,
		RecommendationCount: data.Recommendations.Total,
		ReleaseDate:         strings.TrimSpace(data.ReleaseDate.Date),
		ComingSoon:          data.ReleaseDate.ComingSoon,
	}
	if record.ID == 0 {
		record.ID = id
	}
	if data.Metacritic != nil {
		score := data.Metacritic.Score
		record.MetacriticScore = &score
	}
	if data.Platforms.Windows {
		record.Platforms = append(record.Platforms, "windows")
	}
	if data.Platforms.Mac {
		record.Platforms = append(record.Platforms, "mac")
	}
	if data.Platforms.Linux {
		record.Platforms = append(record.Platforms, "linux")
	}
	for _, genre := range data.Genres {
		if value := strings.TrimSpace(genre.Description); value != "" {
			record.Genres = append(record.Genres, value)
		}
	}
	for _, shot := range data.Screenshots {
		if shot.PathFull != "" {
			record.Screenshots = append(record.Screenshots, shot.PathFull)
		}
	}
	if record.Name == "" {
		return domain.StoreRecord{}, fmt.Errorf("%w: app %d has no name", domain.ErrMalformedResponse, id)
	}
	return record, nil
}

type storeSearchResponse struct {
	Items []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
}

// StoreSearch queries the live free-text store search endpoint. Used only
// when no local catalog is available.
func (c *Client) StoreSearch(ctx context.Context, term string, limit int) ([]domain.CatalogEntry, error) {
	params := url.Values{
		"term": {strings.TrimSpace(term)},
		"l":    {"english"},
		"cc":   {"US"},
	}
	payload, err := c.get(ctx, "storesearch", c.storeEndpoint+"/storesearch/?"+params.Encode(), maxDetailBody)
	if err != nil {
		return nil, err
	}

	var decoded storeSearchResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: store search: %v", domain.ErrMalformedResponse, err)
	}

	if limit <= 0 {
		limit = 25
	}
	entries := make([]domain.CatalogEntry, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		name := strings.TrimSpace(item.Name)
		if item.ID <= 0 || name == "" {
			continue
		}
		entries = append(entries, domain.CatalogEntry{ID: item.ID, Name: name})
		if len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

type currentPlayersResponse struct {
	Response struct {
		PlayerCount int `json:"player_count"`
		Result      int `json:"result"`
	} `json:"response"`
}

// CurrentPlayers returns the concurrent-player count for an app.
// Best-effort: callers are expected to ignore failures.
func (c *Client) CurrentPlayers(ctx context.Context, id int) (int, error) {
	uri := c.apiEndpoint + "/ISteamUserStats/GetNumberOfCurrentPlayers/v1/?appid=" + strconv.Itoa(id)
	payload, err := c.get(ctx, "currentplayers", uri, maxDetailBody)
	if err != nil {
		return 0, err
	}

	var decoded currentPlayersResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return 0, fmt.Errorf("%w: current players: %v", domain.ErrMalformedResponse, err)
	}
	if decoded.Response.Result != 1 {
		return 0, fmt.Errorf("%w: app %d players", domain.ErrNotFound, id)
	}
	return decoded.Response.PlayerCount, nil
}

func (c *Client) get(ctx context.Context, endpoint, uri string, maxBody int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	startedAt := time.Now()
	resp, err := c.client.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startedAt).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "not_found").Inc()
		return nil, fmt.Errorf("%w: HTTP 404", domain.ErrNotFound)
	default:
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrUpstreamStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	return payload, nil
}
