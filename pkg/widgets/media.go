package widgets

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-inferform/pkg/model"
)

// DefaultNoParseMarker opts a file parameter or output out of media handling.
const DefaultNoParseMarker = "(no-parse)"

// MediaMatch is the outcome of sniffing one description.
type MediaMatch struct {
	// Kinds lists the media families mentioned, in priority order.
	Kinds []model.MediaKind
	// NoParse is set when the description carries the no-parse marker.
	NoParse bool
}

// First returns the highest priority media family.
func (m MediaMatch) First() (model.MediaKind, bool) {
	if m.NoParse || len(m.Kinds) == 0 {
		return model.MediaNone, false
	}
	return m.Kinds[0], true
}

// Single returns the media family when exactly one was mentioned.
func (m MediaMatch) Single() (model.MediaKind, bool) {
	if m.NoParse || len(m.Kinds) != 1 {
		return model.MediaNone, false
	}
	return m.Kinds[0], true
}

// MediaSniffer decides which media families a description refers to.
type MediaSniffer interface {
	Sniff(description string) MediaMatch
	// Clean returns the description with any policy markers removed.
	Clean(description string) string
}

// DescriptionSniffer matches media keywords as case-insensitive substrings.
type DescriptionSniffer struct {
	Marker string
}

// NewDescriptionSniffer returns the substring sniffer with the default marker.
func NewDescriptionSniffer() DescriptionSniffer {
	return DescriptionSniffer{Marker: DefaultNoParseMarker}
}

// Sniff implements MediaSniffer.
func (s DescriptionSniffer) Sniff(description string) MediaMatch {
	lower := strings.ToLower(description)
	match := MediaMatch{}
	if s.Marker != "" && strings.Contains(lower, strings.ToLower(s.Marker)) {
		match.NoParse = true
	}
	for _, kind := range model.MediaKinds() {
		if strings.Contains(lower, string(kind)) {
			match.Kinds = append(match.Kinds, kind)
		}
	}
	return match
}

var spaceRun = regexp.MustCompile(`\s{2,}`)

// Clean implements MediaSniffer.
func (s DescriptionSniffer) Clean(description string) string {
	if s.Marker == "" {
		return strings.TrimSpace(description)
	}
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(s.Marker))
	cleaned := pattern.ReplaceAllString(description, "")
	return strings.TrimSpace(spaceRun.ReplaceAllString(cleaned, " "))
}
