package search

import (
	"regexp"
	"strings"

	"gamehub/searchservice/internal/domain"
)

// Name keywords that mark probable non-game records when the upstream
// type field is missing. Word-bounded so "Demon's Souls" survives the
// "demo" pattern, and "Deluxe Edition" titles are left alone.
var (
	demoPattern     = regexp.MustCompile(`\bdemo\b`)
	dlcPattern      = regexp.MustCompile(`\b(dlc|soundtrack pack|asset pack|expansion pack)\b`)
	trailerPattern  = regexp.MustCompile(`\b(trailer|teaser)\b`)
	hardwarePattern = regexp.MustCompile(`\b(controller|headset|vr kit)\b`)
)

// Classify maps an upstream record to a RecordKind. The upstream type
// field is authoritative when present; otherwise the name is checked
// against the keyword patterns. Records that neither declare a type
// nor trip a pattern come back Unknown and are accepted downstream.
func Classify(record domain.StoreRecord) domain.RecordKind {
	switch strings.ToLower(strings.TrimSpace(record.Type)) {
	case "game":
		return domain.KindGame
	case "dlc":
		return domain.KindDLC
	case "demo":
		return domain.KindDemo
	case "video", "movie", "episode", "series":
		return domain.KindVideo
	case "hardware":
		return domain.KindHardware
	case "music", "soundtrack":
		return domain.KindDLC
	}

	name := strings.ToLower(record.Name)
	switch {
	case demoPattern.MatchString(name):
		return domain.KindDemo
	case trailerPattern.MatchString(name):
		return domain.KindVideo
	case dlcPattern.MatchString(name):
		return domain.KindDLC
	case hardwarePattern.MatchString(name):
		return domain.KindHardware
	}
	return domain.KindUnknown
}

// Playable reports whether a record of the given kind belongs in
// search results. Unknown is accepted: a bare record with a clean name
// is far more often a game than not.
func Playable(kind domain.RecordKind) bool {
	return kind == domain.KindGame || kind == domain.KindUnknown
}
