package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/thumbstudio/internal/ai"
	"github.com/kdimtricp/thumbstudio/internal/config"
	"github.com/kdimtricp/thumbstudio/internal/models"
	"github.com/kdimtricp/thumbstudio/internal/studio"
	"github.com/kdimtricp/thumbstudio/internal/youtube"
)

func main() {
	var configDir string

	cmd := &cobra.Command{
		Use:   "analyze-thumbnail [YouTube URL or thumbnail URL]",
		Short: "Print the text overlay style recipe of a thumbnail",
		Example: `  analyze-thumbnail "https://youtu.be/dQw4w9WgXcQ"
  analyze-thumbnail https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.New(configDir))
			if err != nil {
				return err
			}

			imageURL := thumbnailFor(args[0])
			fmt.Fprintf(os.Stderr, "Analyzing %s\n", imageURL)

			aiConfig := cfg.AIConfig()
			analyzer := ai.NewStyleAnalyzer(ai.NewVisionModel(aiConfig), aiConfig)
			recipe, err := analyzer.Analyze(cmd.Context(), imageURL)
			if err != nil {
				return fmt.Errorf("%s", studio.UserMessage(err))
			}

			fmt.Println(recipe)
			return nil
		},
	}
	cmd.Flags().StringVar(&configDir, "config-dir", config.DefaultConfigDir(), "directory holding config.toml")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// thumbnailFor maps a video link to its highest resolution thumbnail and
// leaves image URLs alone.
func thumbnailFor(arg string) string {
	arg = strings.TrimSpace(arg)
	if youtube.IsThumbnailURL(arg) {
		return arg
	}
	if id, ok := youtube.ExtractVideoID(arg); ok {
		return models.ThumbnailURL(id, models.VariantMaxRes)
	}
	return arg
}
