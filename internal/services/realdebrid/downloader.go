package realdebrid

import (
	"context"
	"fmt"

	"github.com/konkolorado/jellbrid/internal/requests"
	"github.com/konkolorado/jellbrid/internal/services/torrentio"
	"github.com/sirupsen/logrus"
)

// seasonPassRatio is the share of requested episodes a season bundle must
// cover on the first pass. The threshold truncates (int(0.8*3) == 2, i.e.
// 66.7% for a 3-episode season); kept as-is to match established behavior.
const seasonPassRatio = 0.8

// BundleResolver resolves a torrent hash plus filters and a count
// constraint to a concrete file subset, or nil when none qualifies
type BundleResolver interface {
	BundleWithFileCount(ctx context.Context, hash string, count int, filters []FileFilter) (*Bundle, error)
	BundleWithFileCountAtLeast(ctx context.Context, hash string, minCount int, filters []FileFilter) (*Bundle, error)
	BundleWithFileMatch(ctx context.Context, hash string, filters []FileFilter) (*Bundle, error)
	CacheSize() int
}

// TransferClient mutates torrent state on the remote service
type TransferClient interface {
	AddMagnet(ctx context.Context, hash string) (*AddTorrentResponse, error)
	SelectFiles(ctx context.Context, torrentID string, fileIDs []string) (*SelectFilesResult, error)
	DeleteTorrent(ctx context.Context, torrentID string) error
}

// Downloader walks a ranked candidate list and starts the first download
// whose contents satisfy the request's acceptance rules. Candidates are
// evaluated strictly in order; a candidate that yields no bundle or whose
// submission fails is skipped without retry.
type Downloader struct {
	resolver  BundleResolver
	transfers TransferClient
	devMode   bool
	logger    *logrus.Logger
}

// NewDownloader creates a new downloader. In dev mode every submission is
// skipped and reported as an empty torrent id, so selection can be
// validated without touching the remote service.
func NewDownloader(resolver BundleResolver, transfers TransferClient, devMode bool, logger *logrus.Logger) *Downloader {
	return &Downloader{
		resolver:  resolver,
		transfers: transfers,
		devMode:   devMode,
		logger:    logger,
	}
}

// Download dispatches to the strategy for the request's variant. The
// request union is closed; an unknown variant is a programmer fault.
func (d *Downloader) Download(ctx context.Context, req requests.Request, streams []torrentio.Stream) (string, bool) {
	switch r := req.(type) {
	case requests.MovieRequest:
		return d.DownloadMovie(ctx, r, streams)
	case requests.SeasonRequest:
		return d.DownloadSeason(ctx, r, streams)
	case requests.EpisodeRequest:
		if id, ok := d.DownloadEpisode(ctx, r, streams); ok {
			return id, true
		}
		return d.DownloadEpisodeFromBundle(ctx, r, streams)
	default:
		panic(fmt.Sprintf("unhandled request type %T", req))
	}
}

// DownloadMovie starts the first candidate resolving to exactly one file
// that matches the movie title. Short titles are too ambiguous to match on
// alone, so candidates are first narrowed to names carrying a release year.
func (d *Downloader) DownloadMovie(ctx context.Context, req requests.MovieRequest, streams []torrentio.Stream) (string, bool) {
	candidates := streams
	if len(req.Title) < 6 {
		candidates = nil
		for _, stream := range streams {
			if torrentio.NameContainsReleaseYear(stream, req) {
				candidates = append(candidates, stream)
			}
		}
	}

	movieFilter := MovieNameFilter(req.Title)

	for _, stream := range candidates {
		entry := d.candidateLog(stream.InfoHash)
		bundle, err := d.resolveCount(ctx, stream.InfoHash, 1, movieFilter)
		if err != nil {
			entry.WithError(err).Warn("Bundle resolution failed")
			continue
		}
		if bundle == nil {
			entry.Debug("No qualifying bundle for candidate")
			continue
		}
		if torrentID, ok := d.startDownload(ctx, stream, bundle, entry); ok {
			return torrentID, true
		}
	}
	return "", false
}

// DownloadSeason starts the first full-season candidate covering enough of
// the requested episodes. Pass one requires the truncated 80% coverage
// threshold; only after every candidate fails it does pass two rerun the
// same list with no floor at all.
func (d *Downloader) DownloadSeason(ctx context.Context, req requests.SeasonRequest, streams []torrentio.Stream) (string, bool) {
	var candidates []torrentio.Stream
	for _, stream := range streams {
		if torrentio.NameContainsFullSeason(stream, req) {
			candidates = append(candidates, stream)
		}
	}

	threshold := int(float64(len(req.Episodes)) * seasonPassRatio)

	for _, minCount := range []int{threshold, 0} {
		for _, stream := range candidates {
			entry := d.candidateLog(stream.InfoHash)
			bundle, err := d.resolver.BundleWithFileCountAtLeast(ctx, stream.InfoHash, minCount, BaseFilters())
			if err != nil {
				entry.WithError(err).Warn("Bundle resolution failed")
				continue
			}
			if bundle == nil {
				entry.Debug("No qualifying bundle for candidate")
				continue
			}
			if torrentID, ok := d.startDownload(ctx, stream, bundle, entry); ok {
				return torrentID, true
			}
		}
	}
	return "", false
}

// DownloadEpisode starts the first candidate resolving to exactly one file
// carrying the episode identity
func (d *Downloader) DownloadEpisode(ctx context.Context, req requests.EpisodeRequest, streams []torrentio.Stream) (string, bool) {
	episodeFilter := EpisodeFilter(req.Season, req.Episode)

	for _, stream := range streams {
		entry := d.candidateLog(stream.InfoHash)
		bundle, err := d.resolveCount(ctx, stream.InfoHash, 1, episodeFilter)
		if err != nil {
			entry.WithError(err).Warn("Bundle resolution failed")
			continue
		}
		if bundle == nil {
			entry.Debug("No qualifying bundle for candidate")
			continue
		}
		if torrentID, ok := d.startDownload(ctx, stream, bundle, entry); ok {
			return torrentID, true
		}
	}
	return "", false
}

// DownloadEpisodeFromBundle starts the first candidate containing a best
// single-file match for the episode inside a larger bundle, with no
// constraint on the bundle's size
func (d *Downloader) DownloadEpisodeFromBundle(ctx context.Context, req requests.EpisodeRequest, streams []torrentio.Stream) (string, bool) {
	filters := append(BaseFilters(), EpisodeFilter(req.Season, req.Episode))

	for _, stream := range streams {
		entry := d.candidateLog(stream.InfoHash)
		bundle, err := d.resolver.BundleWithFileMatch(ctx, stream.InfoHash, filters)
		if err != nil {
			entry.WithError(err).Warn("Bundle resolution failed")
			continue
		}
		if bundle == nil {
			entry.Debug("No qualifying bundle for candidate")
			continue
		}
		if torrentID, ok := d.startDownload(ctx, stream, bundle, entry); ok {
			return torrentID, true
		}
	}
	return "", false
}

// resolveCount resolves an exact-count bundle with the baseline filters
// plus one strategy filter, composed fresh for this call
func (d *Downloader) resolveCount(ctx context.Context, hash string, count int, extra FileFilter) (*Bundle, error) {
	filters := append(BaseFilters(), extra)
	return d.resolver.BundleWithFileCount(ctx, hash, count, filters)
}

// startDownload runs the submission protocol for an accepted bundle:
// register the magnet, restrict it to the bundle's files, and clean up the
// torrent when restriction is rejected. Failures abandon the candidate and
// never stop iteration.
func (d *Downloader) startDownload(ctx context.Context, stream torrentio.Stream, bundle *Bundle, entry *logrus.Entry) (string, bool) {
	if d.devMode {
		entry.WithField("files", len(bundle.FileIDs)).Info("Dev mode, skipped starting download")
		return "", true
	}

	torrent, err := d.transfers.AddMagnet(ctx, stream.InfoHash)
	if err != nil {
		entry.WithError(err).Warn("Unable to add magnet")
		return "", false
	}
	if torrent.ID == "" {
		entry.Warn("Unable to add magnet")
		return "", false
	}

	result, err := d.transfers.SelectFiles(ctx, torrent.ID, bundle.FileIDs)
	if err != nil || result.Error != "" {
		selectEntry := entry.WithField("torrent_id", torrent.ID)
		if err != nil {
			selectEntry = selectEntry.WithError(err)
		} else {
			selectEntry = selectEntry.WithField("api_error", result.Error)
		}
		selectEntry.Warn("Unable to start torrent")

		// Best-effort cleanup of the registered torrent
		if err := d.transfers.DeleteTorrent(ctx, torrent.ID); err != nil {
			entry.WithError(err).WithField("torrent_id", torrent.ID).Warn("Failed to delete torrent")
		}
		return "", false
	}

	entry.WithFields(logrus.Fields{
		"torrent_id": torrent.ID,
		"files":      len(bundle.FileIDs),
	}).Info("Download started")
	return torrent.ID, true
}

func (d *Downloader) candidateLog(hash string) *logrus.Entry {
	return d.logger.WithFields(logrus.Fields{
		"hash":       hash,
		"cache_size": d.resolver.CacheSize(),
	})
}
