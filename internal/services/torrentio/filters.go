package torrentio

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/konkolorado/jellbrid/internal/requests"
)

var yearRegex = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// NameContainsFullSeason reports whether a stream's name indicates a full
// season release for the requested season: a season marker without an
// episode marker, or an explicit "season N"/"complete" wording.
func NameContainsFullSeason(stream Stream, req requests.SeasonRequest) bool {
	name := strings.ToLower(streamName(stream))

	seasonTag := fmt.Sprintf("s%02d", req.Season)
	if idx := strings.Index(name, seasonTag); idx >= 0 {
		rest := name[idx+len(seasonTag):]
		if !strings.HasPrefix(rest, "e") {
			return true
		}
	}

	if strings.Contains(name, fmt.Sprintf("season %d", req.Season)) {
		return true
	}
	if strings.Contains(name, "complete") {
		return true
	}
	return false
}

// NameContainsReleaseYear reports whether a stream's name encodes a
// plausible release year. Used to disambiguate movies with short, generic
// titles.
func NameContainsReleaseYear(stream Stream, req requests.MovieRequest) bool {
	return yearRegex.MatchString(streamName(stream))
}

// streamName returns the display name torrentio populated for the stream.
// Title carries the release name; Name is the addon label fallback.
func streamName(stream Stream) string {
	if stream.Title != "" {
		return stream.Title
	}
	return stream.Name
}
