package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/thumbstudio/internal/ai"
	"github.com/kdimtricp/thumbstudio/internal/config"
	"github.com/kdimtricp/thumbstudio/internal/youtube"
)

type prober interface {
	Probe(ctx context.Context) error
}

type modelCheck struct {
	label string
	model prober
}

func main() {
	var configDir string

	cmd := &cobra.Command{
		Use:          "check-ai",
		Short:        "Check that the configured API keys can reach their models",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.New(configDir))
			if err != nil {
				return err
			}
			return check(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&configDir, "config-dir", config.DefaultConfigDir(), "directory holding config.toml")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func check(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	fmt.Println("🔍 Checking AI configuration")
	fmt.Println("============================")

	aiConfig := cfg.AIConfig()
	checks := []modelCheck{
		{"Generation (" + aiConfig.GenerationModel + ")", ai.NewGeminiClient(aiConfig.GeminiAPIKey, aiConfig.GenerationModel)},
	}
	if aiConfig.Provider == ai.ProviderOpenAI {
		checks = append(checks, modelCheck{"Analysis (" + aiConfig.OpenAIModel + ")", ai.NewOpenAIVision(aiConfig.OpenAIAPIKey, aiConfig.OpenAIModel)})
	} else {
		checks = append(checks, modelCheck{"Analysis (" + aiConfig.AnalysisModel + ")", ai.NewGeminiClient(aiConfig.GeminiAPIKey, aiConfig.AnalysisModel)})
	}

	failed := 0
	for _, c := range checks {
		if err := c.model.Probe(ctx); err != nil {
			failed++
			fmt.Printf("❌ %s: %v\n", c.label, err)
			continue
		}
		fmt.Printf("✅ %s: reachable\n", c.label)
	}

	if _, err := youtube.NewChannelLister(ctx, cfg.YouTubeAPIKey, cfg.YouTubeRPS); err != nil {
		fmt.Printf("⚠️  Channel lookup: %s\n", youtube.UserMessage(err))
	} else {
		fmt.Println("✅ Channel lookup: YouTube API key configured")
	}

	if failed > 0 {
		return fmt.Errorf("%d model check(s) failed", failed)
	}
	return nil
}
