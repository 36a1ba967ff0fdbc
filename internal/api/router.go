package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App, static fs.FS) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", app.HomeHandler)
	r.Get("/ping", PingHandler)

	if static != nil {
		r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.FS(static))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/videos", func(r chi.Router) {
			r.Get("/", app.ListVideosHandler)
			r.Delete("/", app.ClearVideosHandler)
			r.Post("/parse", app.ParseVideosHandler)
			r.Post("/channel", app.ChannelVideosHandler)
			r.Post("/select-all", app.ToggleAllHandler)
			r.Post("/{id}/toggle", app.ToggleVideoHandler)
			r.Post("/{id}/thumbnail-failed", app.ThumbnailFailedHandler)
		})

		r.Post("/export", app.ExportHandler)
		r.Get("/download", app.DownloadHandler)

		r.Route("/studio", func(r chi.Router) {
			r.Get("/", app.GetStudioHandler)
			r.Delete("/", app.CloseStudioHandler)
			r.Get("/events", app.StudioEventsHandler)
			r.Post("/analyze", app.StartAnalysisHandler)
			r.Post("/open", app.OpenGeneratorHandler)
			r.Post("/generate-mode", app.GenerateModeHandler)
			r.Put("/recipe", app.SetRecipeHandler)
			r.Post("/base-image", app.UploadBaseImageHandler)
			r.Put("/title/{position}/{field}", app.SetSegmentHandler)
			r.Post("/generate", app.GenerateHandler)
			r.Get("/result", app.ResultHandler)
			r.Get("/result/inline", app.InlineResultHandler)
		})
	})

	return r
}
