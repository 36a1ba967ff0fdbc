package config

import (
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/kdimtricp/thumbstudio/internal/ai"
)

const appName = "thumbstudio"

//go:embed config.toml
var defaultFS embed.FS

// Config holds the server settings.
type Config struct {
	Port             string
	AnalysisProvider string
	AnalysisModel    string
	OpenAIModel      string
	GenerationModel  string
	FetchTimeout     time.Duration
	MaxDimension     int
	JPEGQuality      int
	MaxUploadSize    int64
	YouTubeRPS       float64

	GeminiAPIKey  string
	OpenAIAPIKey  string
	YouTubeAPIKey string

	ConfigDir string
}

// New builds a viper instance with defaults, the optional config file and
// the environment bound in.
func New(configDir string) *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("analysis_provider", ai.ProviderGemini)
	v.SetDefault("analysis_model", "gemini-3-flash-preview")
	v.SetDefault("openai_model", "gpt-4o")
	v.SetDefault("generation_model", "gemini-3-pro-image-preview")
	v.SetDefault("fetch_timeout", 15*time.Second)
	v.SetDefault("max_dimension", 800)
	v.SetDefault("jpeg_quality", 85)
	v.SetDefault("max_upload_size", int64(20<<20))
	v.SetDefault("youtube_rps", 5.0)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("THUMBSTUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "API_KEY")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("youtube_api_key", "YOUTUBE_API_KEY")

	return v
}

// DefaultConfigDir is $XDG_CONFIG_HOME/thumbstudio.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// Load reads the config file, if any, and returns the resolved settings.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	cfg := &Config{
		Port:             v.GetString("port"),
		AnalysisProvider: strings.ToLower(v.GetString("analysis_provider")),
		AnalysisModel:    v.GetString("analysis_model"),
		OpenAIModel:      v.GetString("openai_model"),
		GenerationModel:  v.GetString("generation_model"),
		FetchTimeout:     v.GetDuration("fetch_timeout"),
		MaxDimension:     v.GetInt("max_dimension"),
		JPEGQuality:      v.GetInt("jpeg_quality"),
		MaxUploadSize:    v.GetInt64("max_upload_size"),
		YouTubeRPS:       v.GetFloat64("youtube_rps"),
		GeminiAPIKey:     v.GetString("gemini_api_key"),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		YouTubeAPIKey:    v.GetString("youtube_api_key"),
	}
	if used := v.ConfigFileUsed(); used != "" {
		cfg.ConfigDir = filepath.Dir(used)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges. Missing API keys are not an error here; the
// features that need them report it when used.
func (c *Config) Validate() error {
	switch c.AnalysisProvider {
	case ai.ProviderGemini, ai.ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported analysis_provider %q (use %q or %q)", c.AnalysisProvider, ai.ProviderGemini, ai.ProviderOpenAI)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.MaxDimension <= 0 {
		return fmt.Errorf("max_dimension must be positive, got %d", c.MaxDimension)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_size must be positive, got %d", c.MaxUploadSize)
	}
	if c.YouTubeRPS <= 0 {
		return fmt.Errorf("youtube_rps must be positive, got %v", c.YouTubeRPS)
	}
	return nil
}

// AIConfig maps the settings onto the ai package configuration.
func (c *Config) AIConfig() *ai.Config {
	return &ai.Config{
		Provider:        c.AnalysisProvider,
		GeminiAPIKey:    c.GeminiAPIKey,
		OpenAIAPIKey:    c.OpenAIAPIKey,
		AnalysisModel:   c.AnalysisModel,
		OpenAIModel:     c.OpenAIModel,
		GenerationModel: c.GenerationModel,
		FetchTimeout:    c.FetchTimeout,
		MaxDimension:    c.MaxDimension,
		JPEGQuality:     c.JPEGQuality,
	}
}

// EnsureDefaultConfig writes the embedded default config.toml into dir if
// no config file exists there yet.
func EnsureDefaultConfig(dir string) error {
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	content, err := defaultFS.ReadFile("config.toml")
	if err != nil {
		return fmt.Errorf("reading embedded default configuration: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("writing default configuration: %w", err)
	}

	log.Printf("Created default configuration at %s", path)
	return nil
}
