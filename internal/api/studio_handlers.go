package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/thumbstudio/internal/models"
	"github.com/kdimtricp/thumbstudio/internal/storage"
	"github.com/kdimtricp/thumbstudio/internal/studio"
)

type sessionResponse struct {
	Session *studio.Snapshot `json:"session"`
}

func (app *App) writeSession(w http.ResponseWriter, status int, snap studio.Snapshot, err error) {
	if err != nil {
		writeError(w, studioStatus(err), studio.UserMessage(err))
		return
	}
	writeJSON(w, status, sessionResponse{Session: &snap})
}

func (app *App) GetStudioHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok := app.Studio.Snapshot()
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: &snap})
}

func (app *App) StartAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ImageURL == "" || !app.allowURL(req.ImageURL) {
		writeError(w, http.StatusBadRequest, "Only YouTube thumbnail URLs can be analyzed.")
		return
	}

	snap, err := app.Studio.OpenAnalysis(req.ImageURL)
	app.writeSession(w, http.StatusAccepted, snap, err)
}

func (app *App) OpenGeneratorHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipe string `json:"recipe"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := app.Studio.OpenGenerator(req.Recipe)
	app.writeSession(w, http.StatusOK, snap, err)
}

func (app *App) GenerateModeHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := app.Studio.SwitchToGenerate()
	app.writeSession(w, http.StatusOK, snap, err)
}

func (app *App) SetRecipeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipe string `json:"recipe"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := app.Studio.SetRecipe(req.Recipe)
	app.writeSession(w, http.StatusOK, snap, err)
}

func (app *App) SetSegmentHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	pos := models.SegmentPosition(chi.URLParam(r, "position"))
	field := models.SegmentField(chi.URLParam(r, "field"))

	snap, err := app.Studio.SetSegment(pos, field, req.Value)
	app.writeSession(w, http.StatusOK, snap, err)
}

func (app *App) UploadBaseImageHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "File too large.")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to get file.")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read the file.")
			return
		}
	}

	snap, err := app.Studio.SetBaseImage(file, header.Filename, contentType)
	app.writeSession(w, http.StatusOK, snap, err)
}

// GenerateHandler starts generation. The body may carry the recipe and title
// as shown in the form so edits still in flight are not lost; an empty body
// generates from the session as stored.
func (app *App) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var edits studio.Edits
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&edits); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	snap, err := app.Studio.Generate(edits)
	app.writeSession(w, http.StatusAccepted, snap, err)
}

func (app *App) CloseStudioHandler(w http.ResponseWriter, r *http.Request) {
	app.Studio.Close()
	writeJSON(w, http.StatusOK, sessionResponse{})
}

// ResultHandler serves the generated image as a download named
// generated_thumb_<unix>.<ext> unless ?filename= overrides it.
func (app *App) ResultHandler(w http.ResponseWriter, r *http.Request) {
	app.serveResult(w, r, true)
}

func (app *App) InlineResultHandler(w http.ResponseWriter, r *http.Request) {
	app.serveResult(w, r, false)
}

func (app *App) serveResult(w http.ResponseWriter, r *http.Request, download bool) {
	file, img, generatedAt, err := app.Studio.GeneratedImage()
	if err != nil {
		if errors.Is(err, studio.ErrNoSession) || errors.Is(err, studio.ErrNoResult) {
			writeError(w, http.StatusNotFound, studio.UserMessage(err))
			return
		}
		log.Printf("[STUDIO] Error opening generated image: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to open the generated image.")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", img.MIMEType)
	if download {
		filename := sanitizeFilename(r.URL.Query().Get("filename"))
		if filename == "" {
			filename = "generated_thumb_" + strconv.FormatInt(app.now().Unix(), 10) + storage.ExtensionFor(img.MIMEType)
		}
		w.Header().Set("Content-Disposition", attachment(filename))
	}
	http.ServeContent(w, r, "", generatedAt, file)
}

// StudioEventsHandler streams a snapshot of the session after every change
// as server-sent events.
func (app *App) StudioEventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, unsubscribe := app.Studio.Subscribe()
	defer unsubscribe()

	w.WriteHeader(http.StatusOK)
	if snap, ok := app.Studio.Snapshot(); ok {
		writeEvent(w, snap)
	}
	flusher.Flush()

	clientGone := r.Context().Done()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			writeEvent(w, snap)
			flusher.Flush()

		case <-clientGone:
			return
		}
	}
}

func writeEvent(w io.Writer, snap studio.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("Error marshaling update: %v", err)
		return
	}
	fmt.Fprintf(w, "event: session\ndata: %s\n\n", data)
}
