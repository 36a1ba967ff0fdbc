package ai

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient wraps the Gemini API. The underlying client is created on
// first use so a missing key only fails the operation that needs it.
type GeminiClient struct {
	apiKey string
	model  string

	clientOnce sync.Once
	client     *genai.Client
	clientErr  error
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model}
}

func (c *GeminiClient) Name() string {
	return c.model
}

func (c *GeminiClient) Configured() bool {
	return c.apiKey != ""
}

func (c *GeminiClient) ensureClient(ctx context.Context) (*genai.Client, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c.clientOnce.Do(func() {
		c.client, c.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if c.clientErr != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", c.clientErr)
	}
	return c.client, nil
}

func (c *GeminiClient) DescribeImage(ctx context.Context, img Image, prompt string) (string, error) {
	client, err := c.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, imagePrompt(img, prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (c *GeminiClient) EditImage(ctx context.Context, img Image, prompt string) ([]Candidate, error) {
	client, err := c.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, imagePrompt(img, prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(resp.Candidates))
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			candidates = append(candidates, Candidate{})
			continue
		}
		var out Candidate
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			p := Part{Text: part.Text}
			if part.InlineData != nil {
				p.InlineData = &Image{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}
			}
			out.Parts = append(out.Parts, p)
		}
		candidates = append(candidates, out)
	}
	return candidates, nil
}

// Probe checks that the configured model is reachable with the current key.
func (c *GeminiClient) Probe(ctx context.Context) error {
	client, err := c.ensureClient(ctx)
	if err != nil {
		return err
	}
	if _, err := client.Models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("model %s: %w", c.model, err)
	}
	return nil
}

func imagePrompt(img Image, prompt string) []*genai.Content {
	parts := []*genai.Part{
		genai.NewPartFromBytes(img.Data, img.MIMEType),
		genai.NewPartFromText(prompt),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
