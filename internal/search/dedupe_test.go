package search

import (
	"testing"

	"gamehub/searchservice/internal/domain"
)

func details(names ...string) []domain.GameDetail {
	out := make([]domain.GameDetail, len(names))
	for i, name := range names {
		out[i] = domain.GameDetail{ID: i + 1, Name: name}
	}
	return out
}

func TestDedupeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Witcher 3: Wild Hunt", "witcher 3 wild hunt"},
		{"Celeste: Farewell Edition", "celeste"},
		{"DARK SOULS: Remastered", "dark souls"},
		{"Skyrim - Special Edition", "skyrim"},
		{"A Short Hike", "short hike"},
		{"Half-Life 2", "half life 2"},
		{"Portal 2", "portal 2"},
	}
	for _, tt := range tests {
		if got := dedupeKey(tt.in); got != tt.want {
			t.Errorf("dedupeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	games := details("Celeste", "Hollow Knight", "Celeste: Farewell Edition")
	got := Dedupe(games)

	if len(got) != 2 {
		t.Fatalf("expected 2 games, got %d: %v", len(got), got)
	}
	if got[0].Name != "Celeste" || got[0].ID != 1 {
		t.Errorf("first occurrence not kept: %+v", got[0])
	}
	if got[1].Name != "Hollow Knight" {
		t.Errorf("unrelated game dropped: %+v", got[1])
	}
}

func TestDedupePreservesOrder(t *testing.T) {
	games := details("Zork", "Abzu", "Myst", "Zork Anthology")
	got := Dedupe(games)

	want := []string{"Zork", "Abzu", "Myst", "Zork Anthology"}
	if len(got) != len(want) {
		t.Fatalf("expected %d games, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestDedupeDistinctSequels(t *testing.T) {
	games := details("Portal", "Portal 2")
	if got := Dedupe(games); len(got) != 2 {
		t.Fatalf("sequels collapsed: %v", got)
	}
}

func TestSimilarity(t *testing.T) {
	if got := similarity("portal", "portal"); got != 1 {
		t.Errorf("identical strings: %v", got)
	}
	if got := similarity("", ""); got != 1 {
		t.Errorf("empty strings: %v", got)
	}
	if got := similarity("abcd", "wxyz"); got != 0 {
		t.Errorf("disjoint strings: %v", got)
	}
	// One edit in a ten-rune string.
	if got := similarity("supraland1", "supraland2"); got != 0.9 {
		t.Errorf("single edit: %v", got)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"gumbo", "gambol", 2},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
