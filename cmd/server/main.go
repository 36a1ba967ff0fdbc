package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/thumbstudio/internal/ai"
	"github.com/kdimtricp/thumbstudio/internal/api"
	"github.com/kdimtricp/thumbstudio/internal/config"
	"github.com/kdimtricp/thumbstudio/internal/database"
	"github.com/kdimtricp/thumbstudio/internal/export"
	"github.com/kdimtricp/thumbstudio/internal/storage"
	"github.com/kdimtricp/thumbstudio/internal/studio"
	"github.com/kdimtricp/thumbstudio/internal/youtube"
	"github.com/kdimtricp/thumbstudio/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "thumbstudio",
		Short: "YouTube thumbnail collector and AI style studio",
		Long: `Thumbstudio serves a browser UI that collects YouTube thumbnails from video
links or a channel, downloads them as a zip, analyzes the title style of a
thumbnail and regenerates a new thumbnail with your own text.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New(configDir)
			for key, flag := range map[string]string{
				"port":              "port",
				"analysis_provider": "analysis-provider",
				"max_upload_size":   "max-upload-size",
			} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			if err := config.EnsureDefaultConfig(configDir); err != nil {
				log.Printf("Warning: failed to ensure default config: %v", err)
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", config.DefaultConfigDir(), "directory holding config.toml")
	cmd.Flags().String("port", "8080", "HTTP port")
	cmd.Flags().String("analysis-provider", ai.ProviderGemini, "vision model provider for style analysis (gemini or openai)")
	cmd.Flags().Int64("max-upload-size", 20<<20, "maximum base image upload size in bytes")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(database.Config{})
	if err != nil {
		return err
	}
	defer db.Close()

	scratch, err := storage.NewScratchStorage()
	if err != nil {
		return err
	}
	defer scratch.Close()

	aiConfig := cfg.AIConfig()
	analyzer := ai.NewStyleAnalyzer(ai.NewVisionModel(aiConfig), aiConfig)
	generator := ai.NewGenerator(ai.NewGeminiClient(aiConfig.GeminiAPIKey, aiConfig.GenerationModel))
	if aiConfig.GeminiAPIKey == "" {
		log.Printf("AI services not configured. Set GEMINI_API_KEY to enable analysis and generation")
	}

	app := &api.App{
		VideoRepo:     database.NewVideoRepository(db),
		Exporter:      export.NewExporter(nil),
		Studio:        studio.NewService(analyzer, generator, scratch),
		MaxUploadSize: cfg.MaxUploadSize,
	}

	lister, err := youtube.NewChannelLister(ctx, cfg.YouTubeAPIKey, cfg.YouTubeRPS)
	if err != nil {
		log.Printf("Channel lookup disabled: %v", err)
	} else {
		app.Channels = lister
	}

	app.Templates, err = web.Templates()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(app, web.Static()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		log.Printf("Analysis provider: %s, generation model: %s", aiConfig.Provider, aiConfig.GenerationModel)
		log.Printf("Max upload size: %d bytes", cfg.MaxUploadSize)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	app.Studio.Close()
	if err := app.Studio.Wait(shutdownCtx); err != nil {
		log.Printf("Background operations still running at exit: %v", err)
	}
	return nil
}
