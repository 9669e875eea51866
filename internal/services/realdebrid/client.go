package realdebrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/konkolorado/jellbrid/internal/config"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const realDebridAPIBase = "https://api.real-debrid.com/rest/1.0"

// Client wraps the real-debrid REST API. Instant availability lookups are
// memoized in a TTL cache shared across concurrent resolutions.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new real-debrid client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.RealDebridAPIKey == "" {
		return nil, fmt.Errorf("real-debrid API key is required")
	}

	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	return &Client{
		apiKey:     cfg.RealDebridAPIKey,
		baseURL:    realDebridAPIBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      gocache.New(ttl, 2*ttl),
		logger:     logger,
	}, nil
}

// CacheSize returns the current number of cached availability entries.
// Read-only, exposed for log correlation.
func (c *Client) CacheSize() int {
	return c.cache.ItemCount()
}

// AddMagnet registers a torrent from its info hash. The response ID is
// empty when real-debrid rejects the magnet.
func (c *Client) AddMagnet(ctx context.Context, hash string) (*AddTorrentResponse, error) {
	form := url.Values{}
	form.Set("magnet", "magnet:?xt=urn:btih:"+hash)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/torrents/addMagnet", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// A rejected magnet is reported through an empty ID, not an error
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.WithFields(logrus.Fields{
			"hash":        hash,
			"status_code": resp.StatusCode,
			"body":        string(bodyBytes),
		}).Debug("Magnet registration rejected")
		return &AddTorrentResponse{}, nil
	}

	var result AddTorrentResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// SelectFiles restricts a torrent to exactly the given file ids. API
// rejections are returned as data in the result, never as a Go error.
func (c *Client) SelectFiles(ctx context.Context, torrentID string, fileIDs []string) (*SelectFilesResult, error) {
	form := url.Values{}
	form.Set("files", strings.Join(fileIDs, ","))

	endpoint := fmt.Sprintf("%s/torrents/selectFiles/%s", c.baseURL, torrentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return &SelectFilesResult{}, nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result SelectFilesResult
	if err := json.Unmarshal(bodyBytes, &result); err != nil || result.Error == "" {
		result.Error = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return &result, nil
}

// DeleteTorrent removes a torrent from the account
func (c *Client) DeleteTorrent(ctx context.Context, torrentID string) error {
	endpoint := fmt.Sprintf("%s/torrents/delete/%s", c.baseURL, torrentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// ListTorrents retrieves all torrents on the account
func (c *Client) ListTorrents(ctx context.Context) ([]TorrentInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/torrents", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var torrents []TorrentInfo
	if err := json.NewDecoder(resp.Body).Decode(&torrents); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return torrents, nil
}

// getAvailability fetches the instant availability listing for a hash,
// serving repeat lookups from the cache. Transient fetch failures are
// retried with exponential backoff before giving up.
func (c *Client) getAvailability(ctx context.Context, hash string) (availability, error) {
	if cached, found := c.cache.Get(hash); found {
		return cached.(availability), nil
	}

	var result availability
	operation := func() error {
		endpoint := fmt.Sprintf("%s/torrents/instantAvailability/%s", c.baseURL, hash)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("API request failed with status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes)))
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("failed to fetch availability for %s: %w", hash, err)
	}

	c.cache.Set(hash, result, gocache.DefaultExpiration)
	return result, nil
}
