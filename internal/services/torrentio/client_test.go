package torrentio

import (
	"encoding/json"
	"testing"
)

func TestStreamsResponseParsing(t *testing.T) {
	// Sample torrentio stream listing
	jsonData := `{
  "streams": [
    {
      "name": "Torrentio\n1080p",
      "title": "Some.Movie.2020.1080p.BluRay.x264\n👤 120 💾 8.5 GB",
      "infoHash": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
      "fileIdx": 0
    },
    {
      "name": "Torrentio\n720p",
      "title": "Some.Movie.2020.720p.WEB-DL",
      "infoHash": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
      "fileIdx": 1
    },
    {
      "name": "External",
      "title": "Some.Movie.2020.CAM",
      "url": "https://example.com/playback/123"
    }
  ]
}`

	var response StreamsResponse
	if err := json.Unmarshal([]byte(jsonData), &response); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if len(response.Streams) != 3 {
		t.Fatalf("Expected 3 streams, got %d", len(response.Streams))
	}

	first := response.Streams[0]
	if first.InfoHash != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("First stream hash mismatch: %s", first.InfoHash)
	}
	if first.FileIdx != 0 {
		t.Errorf("First stream fileIdx mismatch: %d", first.FileIdx)
	}

	// Order must be preserved; it encodes relevance
	second := response.Streams[1]
	if second.Title != "Some.Movie.2020.720p.WEB-DL" {
		t.Errorf("Second stream title mismatch: %s", second.Title)
	}

	// URL-only streams parse with an empty hash and are dropped later
	third := response.Streams[2]
	if third.InfoHash != "" {
		t.Errorf("Expected empty hash for url-only stream, got %s", third.InfoHash)
	}
}
