package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const maxThumbnailBytes = 20 << 20

// StyleAnalyzer produces a style recipe for a thumbnail's text overlay.
type StyleAnalyzer struct {
	model        VisionModel
	httpClient   *http.Client
	fetchTimeout time.Duration
	maxDimension int
	jpegQuality  int
}

func NewStyleAnalyzer(model VisionModel, config *Config) *StyleAnalyzer {
	if config == nil {
		config = NewConfig()
	}
	return &StyleAnalyzer{
		model:        model,
		httpClient:   &http.Client{},
		fetchTimeout: config.FetchTimeout,
		maxDimension: config.MaxDimension,
		jpegQuality:  config.JPEGQuality,
	}
}

// Analyze fetches the image, downscales it and asks the vision model for a
// recipe. The model's text is returned unchanged.
func (a *StyleAnalyzer) Analyze(ctx context.Context, imageURL string) (string, error) {
	if a.model == nil || !a.model.Configured() {
		return "", fmt.Errorf("%w: set the analysis model API key in the environment", ErrMissingAPIKey)
	}

	raw, err := a.fetchImage(ctx, imageURL)
	if err != nil {
		log.Printf("[AI] Error fetching %s: %v", imageURL, err)
		return "", err
	}

	encoded, err := Downscale(raw, a.maxDimension, a.jpegQuality)
	if err != nil {
		return "", err
	}
	log.Printf("[AI] Analyzing %s (%d bytes -> %d bytes) with %s", imageURL, len(raw), len(encoded), a.model.Name())

	text, err := a.model.DescribeImage(ctx, Image{Data: encoded, MIMEType: "image/jpeg"}, StyleRecipePrompt)
	if err != nil {
		log.Printf("[AI] Error analyzing thumbnail: %v", err)
		return "", classifyAnalysisError(a.model.Name(), err)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoAnalysis
	}
	return text, nil
}

func (a *StyleAnalyzer) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrImageFetchTimeout
		}
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrImageFetchTimeout
		}
		return nil, &FetchError{Err: err}
	}
	return data, nil
}

func classifyAnalysisError(model string, err error) error {
	if errors.Is(err, ErrMissingAPIKey) {
		return err
	}
	msg := err.Error()
	if containsAny(msg, "404") || containsAny(strings.ToLower(msg), "not found") {
		return &ModelUnavailableError{
			Model: model,
			Hint:  "Please ensure your API key supports this model.",
			Err:   err,
		}
	}
	return err
}
