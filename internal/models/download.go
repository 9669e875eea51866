package models

import (
	"fmt"
	"time"
)

// ActiveDownload represents one request currently submitted to real-debrid.
// Season and Episode are nil for movie-level records; Episode is nil for
// season packs.
type ActiveDownload struct {
	Key    string `boltholdKey:"Key"` // composite of IMDB id, season, episode
	IMDBId string `boltholdIndex:"IMDBId"`

	Season  *int
	Episode *int

	TorrentID string
	CreatedAt time.Time
}

// DownloadKey builds the composite store key for an (imdb, season, episode)
// tuple. Inserting under this key is what enforces the one-row-per-tuple
// invariant inside the store transaction.
func DownloadKey(imdbID string, season, episode *int) string {
	key := imdbID
	if season != nil {
		key += fmt.Sprintf(":s%02d", *season)
	}
	if episode != nil {
		key += fmt.Sprintf(":e%02d", *episode)
	}
	return key
}
