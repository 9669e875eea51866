package controllers

import (
	"context"
	"fmt"

	"github.com/konkolorado/jellbrid/internal/models"
	"github.com/konkolorado/jellbrid/internal/requests"
	"github.com/konkolorado/jellbrid/internal/services/realdebrid"
	"github.com/konkolorado/jellbrid/internal/services/torrentio"
	"github.com/konkolorado/jellbrid/internal/utils"
	"github.com/sirupsen/logrus"
)

// DownloadController resolves incoming requests: it checks the active
// download ledger, fetches ranked candidates, runs the downloader and
// records accepted submissions. Duplicate protection under concurrent
// requests rests on the ledger's keyed insert, not on the pre-check.
type DownloadController struct {
	db              *models.Database
	downloader      *realdebrid.Downloader
	torrentioClient *torrentio.Client
	blacklist       *utils.Blacklist
	logger          *logrus.Logger
}

// NewDownloadController creates a new download controller
func NewDownloadController(db *models.Database, downloader *realdebrid.Downloader, torrentioClient *torrentio.Client, blacklist *utils.Blacklist, logger *logrus.Logger) *DownloadController {
	return &DownloadController{
		db:              db,
		downloader:      downloader,
		torrentioClient: torrentioClient,
		blacklist:       blacklist,
		logger:          logger,
	}
}

// ProcessMovie resolves a movie request
func (c *DownloadController) ProcessMovie(ctx context.Context, req requests.MovieRequest) error {
	active, err := c.db.HasMovie(req.IMDBID)
	if err != nil {
		return fmt.Errorf("failed to check active downloads: %w", err)
	}
	if active {
		c.logger.WithField("imdb_id", req.IMDBID).Info("Movie already downloading, skipping")
		return nil
	}

	streams, err := c.torrentioClient.StreamsForMovie(ctx, req.IMDBID)
	if err != nil {
		return fmt.Errorf("failed to fetch candidates: %w", err)
	}
	streams = c.filterBlacklisted(streams)

	torrentID, ok := c.downloader.DownloadMovie(ctx, req, streams)
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"imdb_id": req.IMDBID,
			"title":   req.Title,
		}).Info("No candidate accepted for movie")
		return nil
	}

	return c.record(req.IMDBID, nil, nil, torrentID)
}

// ProcessSeason resolves a full-season request. Torrentio's series listing
// is episode keyed, so candidates come from the first requested episode;
// the downloader narrows them to full-season releases.
func (c *DownloadController) ProcessSeason(ctx context.Context, req requests.SeasonRequest) error {
	if len(req.Episodes) == 0 {
		return fmt.Errorf("season request for %s has no episodes", req.IMDBID)
	}

	active, err := c.db.HasSeason(req.IMDBID, req.Season)
	if err != nil {
		return fmt.Errorf("failed to check active downloads: %w", err)
	}
	if active {
		c.logger.WithFields(logrus.Fields{
			"imdb_id": req.IMDBID,
			"season":  req.Season,
		}).Info("Season already downloading, skipping")
		return nil
	}

	streams, err := c.torrentioClient.StreamsForEpisode(ctx, req.IMDBID, req.Season, req.Episodes[0])
	if err != nil {
		return fmt.Errorf("failed to fetch candidates: %w", err)
	}
	streams = c.filterBlacklisted(streams)

	torrentID, ok := c.downloader.DownloadSeason(ctx, req, streams)
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"imdb_id": req.IMDBID,
			"season":  req.Season,
		}).Info("No candidate accepted for season")
		return nil
	}

	season := req.Season
	return c.record(req.IMDBID, &season, nil, torrentID)
}

// ProcessEpisode resolves a single-episode request, first looking for an
// instantly matching single file and then for a best-effort match inside a
// larger bundle
func (c *DownloadController) ProcessEpisode(ctx context.Context, req requests.EpisodeRequest) error {
	active, err := c.db.HasEpisode(req.IMDBID, req.Season, req.Episode)
	if err != nil {
		return fmt.Errorf("failed to check active downloads: %w", err)
	}
	if active {
		c.logger.WithFields(logrus.Fields{
			"imdb_id": req.IMDBID,
			"season":  req.Season,
			"episode": req.Episode,
		}).Info("Episode already downloading, skipping")
		return nil
	}

	streams, err := c.torrentioClient.StreamsForEpisode(ctx, req.IMDBID, req.Season, req.Episode)
	if err != nil {
		return fmt.Errorf("failed to fetch candidates: %w", err)
	}
	streams = c.filterBlacklisted(streams)

	torrentID, ok := c.downloader.DownloadEpisode(ctx, req, streams)
	if !ok {
		torrentID, ok = c.downloader.DownloadEpisodeFromBundle(ctx, req, streams)
	}
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"imdb_id": req.IMDBID,
			"season":  req.Season,
			"episode": req.Episode,
		}).Info("No candidate accepted for episode")
		return nil
	}

	season := req.Season
	episode := req.Episode
	return c.record(req.IMDBID, &season, &episode, torrentID)
}

func (c *DownloadController) record(imdbID string, season, episode *int, torrentID string) error {
	dl := &models.ActiveDownload{
		IMDBId:    imdbID,
		Season:    season,
		Episode:   episode,
		TorrentID: torrentID,
	}
	if err := c.db.AddDownload(dl); err != nil {
		return fmt.Errorf("failed to record active download: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"imdb_id":    imdbID,
		"torrent_id": torrentID,
	}).Info("Recorded active download")
	return nil
}

func (c *DownloadController) filterBlacklisted(streams []torrentio.Stream) []torrentio.Stream {
	results := make([]torrentio.Stream, 0, len(streams))
	for _, stream := range streams {
		if blacklisted, term := c.blacklist.IsBlacklisted(stream.Title); blacklisted {
			c.logger.WithFields(logrus.Fields{
				"hash": stream.InfoHash,
				"term": term,
			}).Debug("Skipping blacklisted candidate")
			continue
		}
		results = append(results, stream)
	}
	return results
}
