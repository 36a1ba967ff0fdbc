package api

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kdimtricp/thumbstudio/internal/export"
)

func (app *App) ExportHandler(w http.ResponseWriter, r *http.Request) {
	records, err := app.VideoRepo.Selected()
	if err != nil {
		log.Printf("Error loading selection: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load videos.")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "Select at least one thumbnail to download.")
		return
	}

	var buf bytes.Buffer
	// A started export runs to completion even if the client goes away.
	result, err := app.Exporter.ExportSelected(context.WithoutCancel(r.Context()), records, &buf)
	if err != nil {
		log.Printf("[EXPORT] Error building archive: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to build the archive.")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(export.ArchiveName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Thumbnails-Included", strconv.Itoa(len(result.Included)))
	w.Header().Set("X-Thumbnails-Omitted", strconv.Itoa(len(result.Omitted)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[EXPORT] Error writing archive: %v", err)
	}
}

// DownloadHandler fetches one image and returns it as an attachment.
func (app *App) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" || !app.allowURL(url) {
		writeError(w, http.StatusBadRequest, "Only YouTube thumbnail URLs can be downloaded.")
		return
	}

	data, contentType, err := app.Exporter.FetchSingle(context.WithoutCancel(r.Context()), url)
	if err != nil {
		log.Printf("[EXPORT] Error downloading %s: %v", url, err)
		writeError(w, http.StatusBadGateway, "Failed to download the image.")
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	filename := sanitizeFilename(r.URL.Query().Get("filename"))
	if filename == "" {
		filename = path.Base(strings.TrimSuffix(url, "/"))
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
