package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/kdimtricp/thumbstudio/internal/database"
	"github.com/kdimtricp/thumbstudio/internal/export"
	"github.com/kdimtricp/thumbstudio/internal/models"
	"github.com/kdimtricp/thumbstudio/internal/studio"
	"github.com/kdimtricp/thumbstudio/internal/youtube"
)

// ChannelLister lists the newest uploads of a channel.
type ChannelLister interface {
	ResolveAndList(ctx context.Context, ref string) ([]models.VideoRecord, error)
}

type App struct {
	VideoRepo     *database.VideoRepository
	Channels      ChannelLister
	Exporter      *export.Exporter
	Studio        *studio.Service
	Templates     *template.Template
	MaxUploadSize int64

	// AllowURL decides which image URLs the server may fetch on behalf of
	// the browser. Defaults to the YouTube image CDN.
	AllowURL func(string) bool
	Now      func() time.Time
}

func (app *App) allowURL(u string) bool {
	if app.AllowURL != nil {
		return app.AllowURL(u)
	}
	return youtube.IsThumbnailURL(u)
}

func (app *App) now() time.Time {
	if app.Now != nil {
		return app.Now()
	}
	return time.Now()
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type segmentField struct {
	Label    string
	Position models.SegmentPosition
	Color    string
}

func (app *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	defaults := models.DefaultTitleComposition()

	data := struct {
		Title           string
		ChannelsEnabled bool
		Segments        []segmentField
	}{
		Title:           "Thumbnail Studio",
		ChannelsEnabled: app.Channels != nil,
		Segments: []segmentField{
			{"Top line, first part", models.Top1, defaults.Top1.Color},
			{"Top line, second part", models.Top2, defaults.Top2.Color},
			{"Bottom line, first part", models.Bottom1, defaults.Bottom1.Color},
			{"Bottom line, second part", models.Bottom2, defaults.Bottom2.Color},
		},
	}

	if err := app.Templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("Error rendering template: %v", err)
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

// statusBody mirrors the status line shown in the UI.
type statusBody struct {
	Message string            `json:"message"`
	Type    studio.StatusType `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status": statusBody{Message: message, Type: studio.StatusError},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

// studioStatus maps studio errors to HTTP status codes.
func studioStatus(err error) int {
	switch {
	case errors.Is(err, studio.ErrNoSession), errors.Is(err, studio.ErrNoResult):
		return http.StatusNotFound
	case errors.Is(err, studio.ErrBusy), errors.Is(err, studio.ErrWrongMode):
		return http.StatusConflict
	case errors.Is(err, studio.ErrNotSubmittable), errors.Is(err, studio.ErrNotImage), errors.Is(err, models.ErrUnknownSegment):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
