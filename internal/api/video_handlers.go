package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/thumbstudio/internal/database"
	"github.com/kdimtricp/thumbstudio/internal/models"
	"github.com/kdimtricp/thumbstudio/internal/studio"
	"github.com/kdimtricp/thumbstudio/internal/youtube"
)

type videosResponse struct {
	Videos []models.VideoRecord `json:"videos"`
	Status *statusBody          `json:"status,omitempty"`
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := app.VideoRepo.List()
	if err != nil {
		log.Printf("Error listing videos: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load videos.")
		return
	}
	writeJSON(w, http.StatusOK, videosResponse{Videos: videos})
}

// ParseVideosHandler replaces the working list with the videos found in the
// pasted text. The list is cleared first, even when nothing valid is found.
func (app *App) ParseVideosHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := app.VideoRepo.Clear(); err != nil {
		log.Printf("Error clearing videos: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update videos.")
		return
	}

	records, err := youtube.ParseVideoInput(req.Text)
	switch {
	case errors.Is(err, youtube.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "Please enter at least one URL.")
		return
	case errors.Is(err, youtube.ErrNoValidIDs):
		writeError(w, http.StatusBadRequest, "No valid YouTube IDs were found.")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	app.replaceVideos(w, records, fmt.Sprintf("Found %d thumbnails.", len(records)))
}

func (app *App) ChannelVideosHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel string `json:"channel"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Channel) == "" {
		writeError(w, http.StatusBadRequest, "Please enter a valid channel URL.")
		return
	}
	if app.Channels == nil {
		writeError(w, http.StatusServiceUnavailable, youtube.UserMessage(youtube.ErrMissingAPIKey))
		return
	}

	records, err := app.Channels.ResolveAndList(r.Context(), req.Channel)
	if err != nil {
		log.Printf("Error listing channel %q: %v", req.Channel, err)
		writeError(w, http.StatusBadGateway, youtube.UserMessage(err))
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "No videos were found for this channel.")
		return
	}

	app.replaceVideos(w, records, fmt.Sprintf("Fetched the latest %d videos.", len(records)))
}

func (app *App) replaceVideos(w http.ResponseWriter, records []models.VideoRecord, message string) {
	if err := app.VideoRepo.ReplaceAll(records); err != nil {
		log.Printf("Error storing videos: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update videos.")
		return
	}
	writeJSON(w, http.StatusOK, videosResponse{
		Videos: records,
		Status: &statusBody{Message: message, Type: studio.StatusSuccess},
	})
}

func (app *App) ToggleVideoHandler(w http.ResponseWriter, r *http.Request) {
	video, err := app.VideoRepo.ToggleSelected(chi.URLParam(r, "id"))
	if err != nil {
		app.videoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"video": video})
}

func (app *App) ToggleAllHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := app.VideoRepo.ToggleAll(); err != nil {
		app.videoError(w, err)
		return
	}
	app.ListVideosHandler(w, r)
}

func (app *App) ClearVideosHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.VideoRepo.Clear(); err != nil {
		app.videoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videosResponse{
		Videos: []models.VideoRecord{},
		Status: &statusBody{Type: studio.StatusIdle},
	})
}

// ThumbnailFailedHandler is called by the browser when a thumbnail fails to
// load; it moves the record one step down the resolution ladder.
func (app *App) ThumbnailFailedHandler(w http.ResponseWriter, r *http.Request) {
	video, advanced, err := app.VideoRepo.AdvanceLadder(chi.URLParam(r, "id"))
	if err != nil {
		app.videoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"video": video, "advanced": advanced})
}

func (app *App) videoError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, "Video not found.")
		return
	}
	log.Printf("Error updating videos: %v", err)
	writeError(w, http.StatusInternalServerError, "Failed to update videos.")
}
