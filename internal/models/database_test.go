package models

import (
	"path/filepath"
	"testing"

	"github.com/timshannon/bolthold"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func intPtr(n int) *int { return &n }

func TestAddAndDeleteDownload(t *testing.T) {
	db := newTestDatabase(t)

	dl := &ActiveDownload{IMDBId: "tt100", TorrentID: "abc"}
	if err := db.AddDownload(dl); err != nil {
		t.Fatalf("Failed to add download: %v", err)
	}
	if dl.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set on add")
	}

	has, err := db.HasMovie("tt100")
	if err != nil {
		t.Fatalf("HasMovie failed: %v", err)
	}
	if !has {
		t.Error("Expected movie to be active after add")
	}

	if err := db.DeleteDownload(dl); err != nil {
		t.Fatalf("Failed to delete download: %v", err)
	}

	has, err = db.HasMovie("tt100")
	if err != nil {
		t.Fatalf("HasMovie failed: %v", err)
	}
	if has {
		t.Error("Expected movie to be gone after delete")
	}
}

func TestDeleteMissingDownload(t *testing.T) {
	db := newTestDatabase(t)

	dl := &ActiveDownload{IMDBId: "tt100", TorrentID: "abc"}
	if err := db.DeleteDownload(dl); err != bolthold.ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateAddRejected(t *testing.T) {
	db := newTestDatabase(t)

	first := &ActiveDownload{IMDBId: "tt200", Season: intPtr(1), TorrentID: "abc"}
	if err := db.AddDownload(first); err != nil {
		t.Fatalf("Failed to add download: %v", err)
	}

	// Same (imdb, season, episode) tuple must not produce a second row
	second := &ActiveDownload{IMDBId: "tt200", Season: intPtr(1), TorrentID: "def"}
	if err := db.AddDownload(second); err != bolthold.ErrKeyExists {
		t.Errorf("Expected ErrKeyExists, got %v", err)
	}

	dls, err := db.GetDownloads()
	if err != nil {
		t.Fatalf("GetDownloads failed: %v", err)
	}
	if len(dls) != 1 {
		t.Errorf("Expected 1 row, got %d", len(dls))
	}
}

func TestExistenceCheckScoping(t *testing.T) {
	db := newTestDatabase(t)

	// Season-level record for season 1
	season := &ActiveDownload{IMDBId: "tt300", Season: intPtr(1), TorrentID: "s1"}
	if err := db.AddDownload(season); err != nil {
		t.Fatalf("Failed to add season download: %v", err)
	}

	// HasMovie matches any row with the id
	if has, _ := db.HasMovie("tt300"); !has {
		t.Error("HasMovie should match a season-level row for the id")
	}
	if has, _ := db.HasMovie("tt999"); has {
		t.Error("HasMovie should not match a different id")
	}

	if has, _ := db.HasSeason("tt300", 1); !has {
		t.Error("HasSeason should match the recorded season")
	}
	if has, _ := db.HasSeason("tt300", 2); has {
		t.Error("HasSeason should not match a different season")
	}

	// A season-level row is not an episode-level row
	if has, _ := db.HasEpisode("tt300", 1, 1); has {
		t.Error("HasEpisode should not match a season-level row")
	}

	// Episode-level record
	episode := &ActiveDownload{IMDBId: "tt300", Season: intPtr(1), Episode: intPtr(3), TorrentID: "e3"}
	if err := db.AddDownload(episode); err != nil {
		t.Fatalf("Failed to add episode download: %v", err)
	}

	if has, _ := db.HasEpisode("tt300", 1, 3); !has {
		t.Error("HasEpisode should match the recorded episode")
	}
	if has, _ := db.HasEpisode("tt300", 1, 4); has {
		t.Error("HasEpisode should not match a different episode")
	}
	if has, _ := db.HasEpisode("tt300", 2, 3); has {
		t.Error("HasEpisode should not match a different season")
	}
}

func TestMovieAndSeasonRecordsCoexist(t *testing.T) {
	db := newTestDatabase(t)

	movie := &ActiveDownload{IMDBId: "tt400", TorrentID: "m"}
	season := &ActiveDownload{IMDBId: "tt400", Season: intPtr(2), TorrentID: "s"}

	if err := db.AddDownload(movie); err != nil {
		t.Fatalf("Failed to add movie download: %v", err)
	}
	if err := db.AddDownload(season); err != nil {
		t.Fatalf("Failed to add season download: %v", err)
	}

	dls, err := db.GetDownloads()
	if err != nil {
		t.Fatalf("GetDownloads failed: %v", err)
	}
	if len(dls) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(dls))
	}

	// A movie-level row does not satisfy a season-level check
	if has, _ := db.HasSeason("tt400", 1); has {
		t.Error("HasSeason should not match the movie-level row")
	}
}

func TestDownloadKey(t *testing.T) {
	if key := DownloadKey("tt1", nil, nil); key != "tt1" {
		t.Errorf("Movie key mismatch: %s", key)
	}
	if key := DownloadKey("tt1", intPtr(1), nil); key != "tt1:s01" {
		t.Errorf("Season key mismatch: %s", key)
	}
	if key := DownloadKey("tt1", intPtr(1), intPtr(12)); key != "tt1:s01:e12" {
		t.Errorf("Episode key mismatch: %s", key)
	}
}
