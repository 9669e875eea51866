package torrentio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/konkolorado/jellbrid/internal/config"
	"github.com/sirupsen/logrus"
)

// Client queries torrentio for ranked torrent candidates
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new torrentio client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TorrentioURL == "" {
		return nil, fmt.Errorf("torrentio URL is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.TorrentioURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// StreamsForMovie retrieves the ranked candidate list for a movie
func (c *Client) StreamsForMovie(ctx context.Context, imdbID string) ([]Stream, error) {
	url := fmt.Sprintf("%s/stream/movie/%s.json", c.baseURL, imdbID)
	return c.getStreams(ctx, url)
}

// StreamsForEpisode retrieves the ranked candidate list for an episode.
// Season packs containing the episode appear in the same listing, so this
// also serves season resolution (queried with the first wanted episode).
func (c *Client) StreamsForEpisode(ctx context.Context, imdbID string, season, episode int) ([]Stream, error) {
	url := fmt.Sprintf("%s/stream/series/%s:%d:%d.json", c.baseURL, imdbID, season, episode)
	return c.getStreams(ctx, url)
}

func (c *Client) getStreams(ctx context.Context, url string) ([]Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result StreamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Streams without an info hash cannot be handed to real-debrid
	streams := make([]Stream, 0, len(result.Streams))
	for _, stream := range result.Streams {
		if stream.InfoHash == "" {
			continue
		}
		streams = append(streams, stream)
	}

	c.logger.WithFields(logrus.Fields{
		"url":   url,
		"count": len(streams),
	}).Debug("Fetched torrentio streams")

	return streams, nil
}
