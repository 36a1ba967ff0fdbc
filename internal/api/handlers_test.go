package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kdimtricp/thumbstudio/internal/ai"
	"github.com/kdimtricp/thumbstudio/internal/database"
	"github.com/kdimtricp/thumbstudio/internal/export"
	"github.com/kdimtricp/thumbstudio/internal/models"
	"github.com/kdimtricp/thumbstudio/internal/storage"
	"github.com/kdimtricp/thumbstudio/internal/studio"
	"github.com/kdimtricp/thumbstudio/internal/youtube"
	"github.com/kdimtricp/thumbstudio/web"
)

type mockChannels struct {
	records []models.VideoRecord
	err     error
}

func (m *mockChannels) ResolveAndList(ctx context.Context, ref string) ([]models.VideoRecord, error) {
	return m.records, m.err
}

type stubAnalyzer struct{ recipe string }

func (s stubAnalyzer) Analyze(ctx context.Context, imageURL string) (string, error) {
	return s.recipe, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, base ai.Image, recipe string, title models.TitleComposition) (ai.Image, error) {
	return ai.Image{Data: []byte("generated-png"), MIMEType: "image/png"}, nil
}

type testEnv struct {
	app    *App
	router http.Handler
	cdn    *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDB(database.Config{})
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	tmpl, err := web.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}

	// The fake CDN serves every path except ids starting with "x".
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/x") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		io.WriteString(w, "jpeg:"+r.URL.Path)
	}))
	t.Cleanup(cdn.Close)

	app := &App{
		VideoRepo:     database.NewVideoRepository(db),
		Exporter:      export.NewExporter(cdn.Client()),
		Studio:        studio.NewService(stubAnalyzer{recipe: "recipe"}, stubGenerator{}, store),
		Templates:     tmpl,
		MaxUploadSize: 1 << 20,
		AllowURL:      func(u string) bool { return strings.HasPrefix(u, cdn.URL) },
	}

	return &testEnv{app: app, router: NewRouter(app, web.Static()), cdn: cdn}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type videosBody struct {
	Videos []models.VideoRecord `json:"videos"`
	Status *statusBody          `json:"status"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestPingAndHome(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/ping", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Errorf("ping: %d %q", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Thumbnail Studio") {
		t.Errorf("home: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="#FFFF00"`) {
		t.Error("home page should carry the default segment colors")
	}

	rec = env.do(t, http.MethodGet, "/static/app.js", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("static: %d", rec.Code)
	}
}

func TestParseVideosHandler(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantCode   int
		wantIDs    []string
		wantStatus string
	}{
		{
			name:       "valid links",
			text:       "https://youtu.be/dQw4w9WgXcQ, https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=5s\nhttps://www.youtube.com/embed/9bZkp7q19f0",
			wantCode:   http.StatusOK,
			wantIDs:    []string{"dQw4w9WgXcQ", "9bZkp7q19f0"},
			wantStatus: "success",
		},
		{name: "empty", text: "   ", wantCode: http.StatusBadRequest, wantStatus: "error"},
		{name: "no ids", text: "hello world", wantCode: http.StatusBadRequest, wantStatus: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/videos/parse", map[string]string{"text": tt.text})
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}

			body := decode[videosBody](t, rec)
			if body.Status == nil || string(body.Status.Type) != tt.wantStatus {
				t.Errorf("status = %+v, want type %s", body.Status, tt.wantStatus)
			}

			var ids []string
			for _, v := range body.Videos {
				ids = append(ids, v.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestParseClearsPreviousListOnError(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/videos/parse", map[string]string{"text": "https://youtu.be/dQw4w9WgXcQ"})
	env.do(t, http.MethodPost, "/api/videos/parse", map[string]string{"text": "nothing here"})

	body := decode[videosBody](t, env.do(t, http.MethodGet, "/api/videos", nil))
	if len(body.Videos) != 0 {
		t.Errorf("expected cleared list, got %d videos", len(body.Videos))
	}
}

func TestChannelVideosHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/videos/channel", map[string]string{"channel": "@someone"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("without lister: status = %d", rec.Code)
	}

	env.app.Channels = &mockChannels{err: youtube.ErrChannelNotFound}
	rec = env.do(t, http.MethodPost, "/api/videos/channel", map[string]string{"channel": "@someone"})
	body := decode[videosBody](t, rec)
	if rec.Code != http.StatusBadGateway || !strings.Contains(body.Status.Message, "Channel not found") {
		t.Errorf("not found: %d %+v", rec.Code, body.Status)
	}

	env.app.Channels = &mockChannels{}
	rec = env.do(t, http.MethodPost, "/api/videos/channel", map[string]string{"channel": "@someone"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty channel: status = %d", rec.Code)
	}

	env.app.Channels = &mockChannels{records: []models.VideoRecord{
		models.NewVideoRecord("aaaaaaaaaaa", "Newest"),
		models.NewVideoRecord("bbbbbbbbbbb", "Older"),
	}}
	rec = env.do(t, http.MethodPost, "/api/videos/channel", map[string]string{"channel": "@someone"})
	body = decode[videosBody](t, rec)
	if rec.Code != http.StatusOK || len(body.Videos) != 2 || body.Videos[0].Title != "Newest" {
		t.Errorf("success: %d %+v", rec.Code, body)
	}

	rec = env.do(t, http.MethodPost, "/api/videos/channel", map[string]string{"channel": " "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank channel: status = %d", rec.Code)
	}
}

func TestSelectionAndLadderHandlers(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/videos/parse", map[string]string{"text": "https://youtu.be/dQw4w9WgXcQ https://youtu.be/9bZkp7q19f0"})

	rec := env.do(t, http.MethodPost, "/api/videos/dQw4w9WgXcQ/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: %d", rec.Code)
	}

	body := decode[videosBody](t, env.do(t, http.MethodPost, "/api/videos/select-all", nil))
	for _, v := range body.Videos {
		if !v.Selected {
			t.Errorf("%s should be selected after select-all", v.ID)
		}
	}
	body = decode[videosBody](t, env.do(t, http.MethodPost, "/api/videos/select-all", nil))
	for _, v := range body.Videos {
		if v.Selected {
			t.Errorf("%s should be deselected after second select-all", v.ID)
		}
	}

	var last struct {
		Video    models.VideoRecord `json:"video"`
		Advanced bool               `json:"advanced"`
	}
	for i := 0; i < 3; i++ {
		last = decode[struct {
			Video    models.VideoRecord `json:"video"`
			Advanced bool               `json:"advanced"`
		}](t, env.do(t, http.MethodPost, "/api/videos/dQw4w9WgXcQ/thumbnail-failed", nil))
	}
	if last.Advanced || !strings.HasSuffix(last.Video.ThumbnailURL, "/hqdefault.jpg") {
		t.Errorf("third failure should stop at hqdefault: %+v", last)
	}

	if rec := env.do(t, http.MethodPost, "/api/videos/missing0000/toggle", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing toggle: %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/api/videos", nil); rec.Code != http.StatusOK {
		t.Errorf("clear: %d", rec.Code)
	}
	if body := decode[videosBody](t, env.do(t, http.MethodGet, "/api/videos", nil)); len(body.Videos) != 0 {
		t.Errorf("expected empty list after clear")
	}
}

func TestExportHandler(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/api/export", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty selection: status = %d", rec.Code)
	}

	ok := models.NewVideoRecord("aaaaaaaaaaa", "")
	ok.ThumbnailURL = env.cdn.URL + "/aaaaaaaaaaa/maxresdefault.jpg"
	bad := models.NewVideoRecord("xxxxxxxxxxx", "")
	bad.ThumbnailURL = env.cdn.URL + "/xxxxxxxxxxx/maxresdefault.jpg"
	if err := env.app.VideoRepo.ReplaceAll([]models.VideoRecord{ok, bad}); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/api/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "youtube_thumbnails.zip") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Header().Get("X-Thumbnails-Omitted") != "1" {
		t.Errorf("omitted header = %q", rec.Header().Get("X-Thumbnails-Omitted"))
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "aaaaaaaaaaa.jpg" {
		t.Errorf("unexpected entries: %v", zr.File)
	}
}

func TestExportHandlerIgnoresClientCancel(t *testing.T) {
	env := newTestEnv(t)

	rec := models.NewVideoRecord("aaaaaaaaaaa", "")
	rec.ThumbnailURL = env.cdn.URL + "/aaaaaaaaaaa/maxresdefault.jpg"
	if err := env.app.VideoRepo.ReplaceAll([]models.VideoRecord{rec}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/export", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Header().Get("X-Thumbnails-Included") != "1" {
		t.Errorf("export after cancel: %d included=%q", w.Code, w.Header().Get("X-Thumbnails-Included"))
	}
}

func TestDownloadHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/download?url=https://evil.example/x.jpg", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("disallowed host: status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/download?url="+env.cdn.URL+"/abc/hqdefault.jpg&filename=../../my.jpg", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: %d %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="my.jpg"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "jpeg:/abc/hqdefault.jpg" {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/download?url="+env.cdn.URL+"/xyz/hqdefault.jpg", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("upstream failure: status = %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"thumb.jpg":          "thumb.jpg",
		"../../etc/passwd":   "passwd",
		`a"b.jpg`:            "a_b.jpg",
		"":                   "",
		"  spaced name.png ": "spaced name.png",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
