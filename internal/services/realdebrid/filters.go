package realdebrid

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// FileFilter decides whether a file name counts toward a bundle. Every
// filter in the active set must pass.
type FileFilter func(name string) bool

var videoExtensions = map[string]bool{
	".avi": true,
	".m4v": true,
	".mkv": true,
	".mp4": true,
	".wmv": true,
}

// FilterSamples rejects sample files
func FilterSamples(name string) bool {
	return !strings.Contains(strings.ToLower(name), "sample")
}

// FilterExtension rejects files without a supported video extension
func FilterExtension(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// BaseFilters returns the baseline filter set applied to every resolution.
// A fresh slice is returned on each call so callers can append their own
// predicates without sharing state.
func BaseFilters() []FileFilter {
	return []FileFilter{FilterSamples, FilterExtension}
}

// MovieNameFilter builds a filter accepting file names that contain every
// word of the movie title, in order, ignoring case and separators
func MovieNameFilter(title string) FileFilter {
	want := normalizeName(title)
	return func(name string) bool {
		return strings.Contains(normalizeName(name), want)
	}
}

// EpisodeFilter builds a filter accepting file names that encode the given
// season and episode identity (S01E02, 1x02 and zero-padded variants)
func EpisodeFilter(season, episode int) FileFilter {
	pattern := fmt.Sprintf(`(?i)\b(s0*%de0*%d|%dx0*%d)\b`, season, episode, season, episode)
	re := regexp.MustCompile(pattern)
	return func(name string) bool {
		return re.MatchString(name)
	}
}

var nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeName lowercases a name and collapses separators so that
// "The.Movie.2020.mkv" matches the title "The Movie"
func normalizeName(name string) string {
	return strings.Trim(nonAlnumRegex.ReplaceAllString(strings.ToLower(name), " "), " ")
}

// passesAll reports whether a file name is accepted by every filter
func passesAll(name string, filters []FileFilter) bool {
	for _, filter := range filters {
		if !filter(name) {
			return false
		}
	}
	return true
}
