package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/konkolorado/jellbrid/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// ActiveDownloadView is the JSON shape of one active download row
type ActiveDownloadView struct {
	IMDBId    string    `json:"imdb_id"`
	Season    *int      `json:"season,omitempty"`
	Episode   *int      `json:"episode,omitempty"`
	TorrentID string    `json:"torrent_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusResponse represents the status response
type StatusResponse struct {
	ActiveDownloads int                  `json:"active_downloads"`
	Downloads       []ActiveDownloadView `json:"downloads"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dls, err := h.db.GetDownloads()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get active downloads")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		ActiveDownloads: len(dls),
		Downloads:       make([]ActiveDownloadView, 0, len(dls)),
	}
	for _, dl := range dls {
		response.Downloads = append(response.Downloads, ActiveDownloadView{
			IMDBId:    dl.IMDBId,
			Season:    dl.Season,
			Episode:   dl.Episode,
			TorrentID: dl.TorrentID,
			CreatedAt: dl.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
