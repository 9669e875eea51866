package models

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Active download operations

// AddDownload inserts a new active download record. The insert runs in a
// single store transaction and fails with bolthold.ErrKeyExists when a
// record for the same (imdb, season, episode) tuple is already present, so
// concurrent adds for one tuple cannot both commit.
func (db *Database) AddDownload(dl *ActiveDownload) error {
	dl.Key = DownloadKey(dl.IMDBId, dl.Season, dl.Episode)
	dl.CreatedAt = time.Now()
	return db.store.Insert(dl.Key, dl)
}

// DeleteDownload removes an active download record. Deleting a record that
// is no longer present returns bolthold.ErrNotFound.
func (db *Database) DeleteDownload(dl *ActiveDownload) error {
	key := DownloadKey(dl.IMDBId, dl.Season, dl.Episode)
	return db.store.Delete(key, &ActiveDownload{})
}

// HasMovie reports whether any active download exists for the IMDB id,
// regardless of season or episode granularity
func (db *Database) HasMovie(imdbID string) (bool, error) {
	dls, err := db.findByIMDBID(imdbID)
	if err != nil {
		return false, err
	}
	return len(dls) > 0, nil
}

// HasSeason reports whether an active download exists for the given show
// and season. The check is season-scoped only; it never implies episode
// granularity.
func (db *Database) HasSeason(imdbID string, season int) (bool, error) {
	dls, err := db.findByIMDBID(imdbID)
	if err != nil {
		return false, err
	}

	for _, dl := range dls {
		if dl.Season != nil && *dl.Season == season {
			return true, nil
		}
	}
	return false, nil
}

// HasEpisode reports whether an active download exists for exactly the
// given show, season and episode
func (db *Database) HasEpisode(imdbID string, season int, episode int) (bool, error) {
	dls, err := db.findByIMDBID(imdbID)
	if err != nil {
		return false, err
	}

	for _, dl := range dls {
		if dl.Season == nil || *dl.Season != season {
			continue
		}
		if dl.Episode != nil && *dl.Episode == episode {
			return true, nil
		}
	}
	return false, nil
}

// GetDownloads retrieves every active download record, for reconciliation
// against the remote service
func (db *Database) GetDownloads() ([]*ActiveDownload, error) {
	var dls []*ActiveDownload
	err := db.store.Find(&dls, nil)
	return dls, err
}

func (db *Database) findByIMDBID(imdbID string) ([]*ActiveDownload, error) {
	var dls []*ActiveDownload
	err := db.store.Find(&dls, bolthold.Where("IMDBId").Eq(imdbID))
	return dls, err
}
