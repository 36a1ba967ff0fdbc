package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/kdimtricp/thumbstudio/internal/models"
)

const (
	ArchiveName = "youtube_thumbnails.zip"

	maxImageBytes = 20 << 20
)

var ErrNothingSelected = errors.New("no thumbnails selected")

// Result lists the identifiers that made it into the archive and those that
// were left out because both fetches failed.
type Result struct {
	Included []string `json:"included"`
	Omitted  []string `json:"omitted"`
}

type Exporter struct {
	httpClient  *http.Client
	fallbackURL func(id string) string
}

// NewExporter uses client for all fetches. A nil client gets one with no
// overall timeout; fetches run until the CDN answers.
func NewExporter(client *http.Client) *Exporter {
	if client == nil {
		client = &http.Client{}
	}
	return &Exporter{
		httpClient:  client,
		fallbackURL: models.FallbackThumbnailURL,
	}
}

type fetched struct {
	data []byte
	ok   bool
}

// ExportSelected fetches every selected record concurrently and writes the
// images that could be fetched into a zip on w as <id>.jpg. A failed fetch
// is retried once against the fallback variant; records that still fail are
// omitted without failing the export.
func (e *Exporter) ExportSelected(ctx context.Context, records []models.VideoRecord, w io.Writer) (Result, error) {
	var selected []models.VideoRecord
	for _, r := range records {
		if r.Selected {
			selected = append(selected, r)
		}
	}

	results := make([]fetched, len(selected))
	var wg sync.WaitGroup
	for i, record := range selected {
		wg.Add(1)
		go func(i int, record models.VideoRecord) {
			defer wg.Done()
			data, err := e.fetchWithFallback(ctx, record)
			if err != nil {
				log.Printf("[EXPORT] Omitting %s: %v", record.ID, err)
				return
			}
			results[i] = fetched{data: data, ok: true}
		}(i, record)
	}
	wg.Wait()

	result := Result{Included: []string{}, Omitted: []string{}}
	zw := zip.NewWriter(w)
	for i, record := range selected {
		if !results[i].ok {
			result.Omitted = append(result.Omitted, record.ID)
			continue
		}
		entry, err := zw.Create(record.ID + ".jpg")
		if err != nil {
			return result, fmt.Errorf("failed to add %s to archive: %w", record.ID, err)
		}
		if _, err := entry.Write(results[i].data); err != nil {
			return result, fmt.Errorf("failed to write %s to archive: %w", record.ID, err)
		}
		result.Included = append(result.Included, record.ID)
	}

	if err := zw.Close(); err != nil {
		return result, fmt.Errorf("failed to finalize archive: %w", err)
	}

	log.Printf("[EXPORT] Archive ready: %d included, %d omitted", len(result.Included), len(result.Omitted))
	return result, nil
}

func (e *Exporter) fetchWithFallback(ctx context.Context, record models.VideoRecord) ([]byte, error) {
	data, _, err := e.FetchSingle(ctx, record.ThumbnailURL)
	if err == nil {
		return data, nil
	}

	fallback := e.fallbackURL(record.ID)
	data, _, fallbackErr := e.FetchSingle(ctx, fallback)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary: %v; fallback: %w", err, fallbackErr)
	}
	return data, nil
}

// FetchSingle downloads one image and returns its bytes and content type.
func (e *Exporter) FetchSingle(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
