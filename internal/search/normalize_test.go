package search

import (
	"testing"
	"time"

	"gamehub/searchservice/internal/domain"
)

func TestParseReleaseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string // "" means unparseable
	}{
		{"25 Feb, 2022", "2022-02-25"},
		{"Aug 3, 2023", "2023-08-03"},
		{"2020-12-10", "2020-12-10"},
		{"Mar 2024", "2024-03-01"},
		{"2019", "2019-01-01"},
		{"Coming soon", ""},
		{"To be announced", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := parseReleaseDate(tt.raw)
		if tt.want == "" {
			if got != nil {
				t.Errorf("parseReleaseDate(%q) = %v, want nil", tt.raw, got)
			}
			continue
		}
		if got == nil {
			t.Errorf("parseReleaseDate(%q) = nil, want %s", tt.raw, tt.want)
			continue
		}
		if formatted := got.Format("2006-01-02"); formatted != tt.want {
			t.Errorf("parseReleaseDate(%q) = %s, want %s", tt.raw, formatted, tt.want)
		}
	}
}

func TestNormalizeRecordDerivesRating(t *testing.T) {
	score := 87
	record := domain.StoreRecord{
		ID:              400,
		Name:            "  Portal  ",
		Type:            "game",
		MetacriticScore: &score,
		ReleaseDate:     "10 Oct, 2007",
	}
	detail := normalizeRecord(record)

	if detail.Name != "Portal" {
		t.Errorf("name not trimmed: %q", detail.Name)
	}
	if detail.Kind != domain.KindGame {
		t.Errorf("kind = %v, want game", detail.Kind)
	}
	if detail.Rating == nil {
		t.Fatal("expected derived rating")
	}
	// 87/20 = 4.35, rounded to one decimal place.
	if *detail.Rating != 4.4 {
		t.Errorf("rating = %v, want 4.4", *detail.Rating)
	}
	if detail.Release.Timestamp == nil {
		t.Fatal("expected parsed release timestamp")
	}
	want := time.Date(2007, time.October, 10, 0, 0, 0, 0, time.UTC)
	if !detail.Release.Timestamp.Equal(want) {
		t.Errorf("release = %v, want %v", detail.Release.Timestamp, want)
	}
	if detail.Release.DisplayText != "10 Oct, 2007" {
		t.Errorf("display text not preserved: %q", detail.Release.DisplayText)
	}
}

func TestNormalizeRecordWithoutCriticScore(t *testing.T) {
	detail := normalizeRecord(domain.StoreRecord{ID: 1, Name: "Indie Gem", ReleaseDate: "gibberish"})
	if detail.Rating != nil {
		t.Errorf("rating = %v, want nil without critic score", *detail.Rating)
	}
	if detail.Release.Timestamp != nil {
		t.Errorf("timestamp = %v, want nil for unparseable date", detail.Release.Timestamp)
	}
	if detail.Release.DisplayText != "gibberish" {
		t.Errorf("display text dropped: %q", detail.Release.DisplayText)
	}
}
