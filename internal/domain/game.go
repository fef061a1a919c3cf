package domain

import (
	"errors"
	"time"
)

// Error kinds shared between the upstream clients and the search engine.
// Providers wrap these so callers can classify failures with errors.Is
// without depending on a concrete client.
var (
	ErrRateLimited       = errors.New("upstream rate limited")
	ErrNotFound          = errors.New("record not found")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrUpstreamStatus    = errors.New("unexpected upstream status")
)

type CatalogSource string

const (
	CatalogSourcePrimary   CatalogSource = "primary"
	CatalogSourceSecondary CatalogSource = "secondary-mirror"
	CatalogSourceTertiary  CatalogSource = "tertiary-mirror"
	CatalogSourceBackup    CatalogSource = "local-backup"
	CatalogSourceNone      CatalogSource = "none"
)

// CatalogEntry is one row of the bulk app/name catalog. Entries are
// immutable once loaded.
type CatalogEntry struct {
	ID   int    `json:"appid"`
	Name string `json:"name"`
}

// Catalog is an immutable snapshot of the full catalog. Replaced as a
// whole on refresh; never mutated in place.
type Catalog struct {
	Entries   []CatalogEntry `json:"entries"`
	Source    CatalogSource  `json:"source"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

func (c Catalog) Empty() bool {
	return len(c.Entries) == 0
}

// RecordKind classifies an upstream store record.
type RecordKind string

const (
	KindGame     RecordKind = "game"
	KindDLC      RecordKind = "dlc"
	KindDemo     RecordKind = "demo"
	KindVideo    RecordKind = "video"
	KindHardware RecordKind = "hardware"
	KindUnknown  RecordKind = "unknown"
)

// StoreRecord is the single canonical shape upstream detail payloads are
// decoded into before classification and normalization. Clients for other
// upstream shapes map into this type; nothing downstream sees wire JSON.
type StoreRecord struct {
	ID                  int
	Name                string
	Type                string
	ShortDescription    string
	LongDescription     string
	HeaderImage         string
	BackgroundImage     string
	Website             string
	Developers          []string
	Publishers          []string
	Platforms           []string
	Genres              []string
	Screenshots         []string
	MetacriticScore     *int
	RecommendationCount int
	ReleaseDate         string
	ComingSoon          bool
}

type ReleaseInfo struct {
	DisplayText string     `json:"displayText,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	ComingSoon  bool       `json:"comingSoon"`
}

// GameDetail is the canonical enriched record. It is produced only by the
// enricher and is always complete: a failed enrichment drops the
// candidate instead of yielding a partial record.
type GameDetail struct {
	ID               int         `json:"id"`
	Name             string      `json:"name"`
	Kind             RecordKind  `json:"type,omitempty"`
	ShortDescription string      `json:"shortDescription,omitempty"`
	LongDescription  string      `json:"longDescription,omitempty"`
	Release          ReleaseInfo `json:"release"`
	Rating           *float64    `json:"rating,omitempty"`
	MetacriticScore  *int        `json:"metacriticScore,omitempty"`
	RatingsCount     int         `json:"ratingsCount,omitempty"`
	Platforms        []string    `json:"platforms,omitempty"`
	Genres           []string    `json:"genres,omitempty"`
	Developers       []string    `json:"developers,omitempty"`
	Publishers       []string    `json:"publishers,omitempty"`
	HeaderImage      string      `json:"headerImage,omitempty"`
	BackgroundImage  string      `json:"backgroundImage,omitempty"`
	Website          string      `json:"website,omitempty"`
	Screenshots      []string    `json:"screenshots,omitempty"`
	CurrentPlayers   int         `json:"currentPlayers,omitempty"`
}

func (g GameDetail) HasImage() bool {
	return g.HeaderImage != "" || g.BackgroundImage != ""
}

// SearchResult is one page of enriched games. Ephemeral, rebuilt per
// request.
type SearchResult struct {
	Games        []GameDetail `json:"games"`
	TotalResults int          `json:"totalResults"`
	CurrentPage  int          `json:"currentPage"`
	TotalPages   int          `json:"totalPages"`
}

// Tagged results returned across the route-layer boundary. This layer
// never propagates an error value to its caller; failures arrive as
// Success=false plus a human-readable message.

type SearchOutcome struct {
	Success      bool         `json:"success"`
	Games        []GameDetail `json:"games"`
	TotalResults int          `json:"totalResults"`
	CurrentPage  int          `json:"currentPage"`
	TotalPages   int          `json:"totalPages"`
	Error        string       `json:"error,omitempty"`
}

type DetailOutcome struct {
	Success bool        `json:"success"`
	Game    *GameDetail `json:"game,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ListOutcome struct {
	Success bool         `json:"success"`
	Games   []GameDetail `json:"games"`
}

type Suggestion struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type SuggestOutcome struct {
	Success     bool         `json:"success"`
	Suggestions []Suggestion `json:"suggestions"`
}
