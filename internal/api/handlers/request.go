package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/konkolorado/jellbrid/internal/controllers"
	"github.com/konkolorado/jellbrid/internal/requests"
	"github.com/sirupsen/logrus"
)

// RequestHandler handles media request intake
type RequestHandler struct {
	downloadCtrl *controllers.DownloadController
	logger       *logrus.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(downloadCtrl *controllers.DownloadController, logger *logrus.Logger) *RequestHandler {
	return &RequestHandler{
		downloadCtrl: downloadCtrl,
		logger:       logger,
	}
}

// MediaRequestPayload is the JSON body of a media request
type MediaRequestPayload struct {
	Type     string `json:"type"` // "movie", "season" or "episode"
	IMDBId   string `json:"imdb_id"`
	Title    string `json:"title,omitempty"`
	Season   int    `json:"season,omitempty"`
	Episode  int    `json:"episode,omitempty"`
	Episodes []int  `json:"episodes,omitempty"`
}

// ServeHTTP handles the media request endpoint. Resolution runs in the
// background; the response only acknowledges intake.
func (h *RequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload MediaRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.WithError(err).Error("Failed to decode request payload")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if payload.IMDBId == "" {
		http.Error(w, "imdb_id is required", http.StatusBadRequest)
		return
	}

	var process func(context.Context) error
	switch payload.Type {
	case "movie":
		req := requests.MovieRequest{Title: payload.Title, IMDBID: payload.IMDBId}
		process = func(ctx context.Context) error { return h.downloadCtrl.ProcessMovie(ctx, req) }
	case "season":
		req := requests.SeasonRequest{IMDBID: payload.IMDBId, Season: payload.Season, Episodes: payload.Episodes}
		process = func(ctx context.Context) error { return h.downloadCtrl.ProcessSeason(ctx, req) }
	case "episode":
		req := requests.EpisodeRequest{IMDBID: payload.IMDBId, Season: payload.Season, Episode: payload.Episode}
		process = func(ctx context.Context) error { return h.downloadCtrl.ProcessEpisode(ctx, req) }
	default:
		http.Error(w, "Unknown request type", http.StatusBadRequest)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"type":    payload.Type,
		"imdb_id": payload.IMDBId,
	}).Info("Accepted media request")

	go func() {
		if err := process(context.Background()); err != nil {
			h.logger.WithError(err).WithField("imdb_id", payload.IMDBId).Error("Failed to process media request")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}
