package ai

import (
	"context"
	"time"
)

// Image is an encoded raster image with its declared MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// VisionModel turns one image plus an instruction into text.
type VisionModel interface {
	Name() string
	Configured() bool
	DescribeImage(ctx context.Context, img Image, prompt string) (string, error)
}

// ImageModel edits one image according to an instruction and returns the
// raw content parts of every candidate.
type ImageModel interface {
	Name() string
	Configured() bool
	EditImage(ctx context.Context, img Image, prompt string) ([]Candidate, error)
}

type Candidate struct {
	Parts []Part
}

// Part is either inline image bytes or text.
type Part struct {
	Text       string
	InlineData *Image
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Provider        string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnalysisModel   string
	OpenAIModel     string
	GenerationModel string
	FetchTimeout    time.Duration
	MaxDimension    int
	JPEGQuality     int
}

func NewConfig() *Config {
	return &Config{
		Provider:        ProviderGemini,
		AnalysisModel:   "gemini-3-flash-preview",
		OpenAIModel:     "gpt-4o",
		GenerationModel: "gemini-3-pro-image-preview",
		FetchTimeout:    15 * time.Second,
		MaxDimension:    800,
		JPEGQuality:     85,
	}
}

// NewVisionModel returns the analysis backend selected by cfg.Provider.
func NewVisionModel(cfg *Config) VisionModel {
	if cfg.Provider == ProviderOpenAI {
		return NewOpenAIVision(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	return NewGeminiClient(cfg.GeminiAPIKey, cfg.AnalysisModel)
}
