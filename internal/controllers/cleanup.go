package controllers

import (
	"context"
	"fmt"

	"github.com/konkolorado/jellbrid/internal/models"
	"github.com/konkolorado/jellbrid/internal/services/realdebrid"
	"github.com/sirupsen/logrus"
)

// CleanupController reconciles the active download ledger against the
// torrents actually present on the real-debrid account
type CleanupController struct {
	db       *models.Database
	rdClient *realdebrid.Client
	logger   *logrus.Logger
}

// NewCleanupController creates a new cleanup controller
func NewCleanupController(db *models.Database, rdClient *realdebrid.Client, logger *logrus.Logger) *CleanupController {
	return &CleanupController{
		db:       db,
		rdClient: rdClient,
		logger:   logger,
	}
}

// CleanupFinished removes ledger entries whose torrent has finished, died
// or vanished. Dead torrents are also removed from the account, best
// effort.
func (c *CleanupController) CleanupFinished(ctx context.Context) error {
	dls, err := c.db.GetDownloads()
	if err != nil {
		return fmt.Errorf("failed to get active downloads: %w", err)
	}
	if len(dls) == 0 {
		c.logger.Debug("No active downloads to reconcile")
		return nil
	}

	torrents, err := c.rdClient.ListTorrents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list torrents: %w", err)
	}

	byID := make(map[string]realdebrid.TorrentInfo, len(torrents))
	for _, torrent := range torrents {
		byID[torrent.ID] = torrent
	}

	cleaned := 0
	for _, dl := range dls {
		torrent, found := byID[dl.TorrentID]
		if found && !isFinished(torrent.Status) {
			continue
		}

		entry := c.logger.WithFields(logrus.Fields{
			"imdb_id":    dl.IMDBId,
			"torrent_id": dl.TorrentID,
		})

		if found && isDead(torrent.Status) {
			entry.WithField("status", torrent.Status).Warn("Torrent failed, removing from account")
			if err := c.rdClient.DeleteTorrent(ctx, dl.TorrentID); err != nil {
				entry.WithError(err).Warn("Failed to delete torrent")
			}
		}

		if err := c.db.DeleteDownload(dl); err != nil {
			entry.WithError(err).Error("Failed to delete active download")
			continue
		}
		cleaned++
		entry.Info("Cleaned up finished download")
	}

	if cleaned > 0 {
		c.logger.WithField("count", cleaned).Info("Reconciled active downloads")
	}
	return nil
}

// isFinished reports whether a torrent no longer needs a ledger entry
func isFinished(status string) bool {
	return status == realdebrid.StatusDownloaded || isDead(status)
}

func isDead(status string) bool {
	switch status {
	case realdebrid.StatusError, realdebrid.StatusVirus, realdebrid.StatusDead:
		return true
	}
	return false
}
