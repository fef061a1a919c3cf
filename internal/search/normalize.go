package search

import (
	"math"
	"strings"
	"time"

	"gamehub/searchservice/internal/domain"
)

var releaseDateLayouts = []string{
	"2 Jan, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2, 2006",
	"2006-01-02",
	"Jan 2006",
	"January 2006",
	"2006",
}

// parseReleaseDate turns the upstream's free-text release date into a
// timestamp. The raw string is tried against the known layouts as-is,
// then once more with a " UTC" suffix, which is how some regional
// storefront variants format it. Unparseable strings yield nil; the
// display text is kept either way.
func parseReleaseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range releaseDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	withZone := raw + " UTC"
	for _, layout := range releaseDateLayouts {
		if ts, err := time.Parse(layout+" MST", withZone); err == nil {
			return &ts
		}
	}
	return nil
}

// normalizeRecord converts an upstream store record into the canonical
// detail shape. The 0-5 rating is derived from the 0-100 critic score
// when one is present.
func normalizeRecord(record domain.StoreRecord) domain.GameDetail {
	detail := domain.GameDetail{
		ID:               record.ID,
		Name:             strings.TrimSpace(record.Name),
		Kind:             Classify(record),
		ShortDescription: record.ShortDescription,
		LongDescription:  record.LongDescription,
		HeaderImage:      record.HeaderImage,
		BackgroundImage:  record.BackgroundImage,
		Website:          record.Website,
		Developers:       record.Developers,
		Publishers:       record.Publishers,
		Platforms:        record.Platforms,
		Genres:           record.Genres,
		Screenshots:      record.Screenshots,
		MetacriticScore:  record.MetacriticScore,
		RatingsCount:     record.RecommendationCount,
		Release: domain.ReleaseInfo{
			DisplayText: record.ReleaseDate,
			Timestamp:   parseReleaseDate(record.ReleaseDate),
			ComingSoon:  record.ComingSoon,
		},
	}
	if record.MetacriticScore != nil {
		rating := math.Round(float64(*record.MetacriticScore)/20*10) / 10
		detail.Rating = &rating
	}
	return detail
}
