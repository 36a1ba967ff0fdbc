package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIVision is a VisionModel backed by the chat completions API.
type OpenAIVision struct {
	apiKey     string
	model      string
	opts       []option.RequestOption
	clientOnce sync.Once
	client     *openai.Client
}

func NewOpenAIVision(apiKey, model string, opts ...option.RequestOption) *OpenAIVision {
	return &OpenAIVision{apiKey: apiKey, model: model, opts: opts}
}

func (c *OpenAIVision) Name() string {
	return c.model
}

func (c *OpenAIVision) Configured() bool {
	return c.apiKey != ""
}

func (c *OpenAIVision) ensureClient() error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	c.clientOnce.Do(func() {
		opts := append([]option.RequestOption{option.WithAPIKey(c.apiKey)}, c.opts...)
		client := openai.NewClient(opts...)
		c.client = &client
	})
	return nil
}

func (c *OpenAIVision) DescribeImage(ctx context.Context, img Image, prompt string) (string, error) {
	if err := c.ensureClient(); err != nil {
		return "", err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// Probe checks that the configured model is reachable with the current key.
func (c *OpenAIVision) Probe(ctx context.Context) error {
	if err := c.ensureClient(); err != nil {
		return err
	}
	if _, err := c.client.Models.Get(ctx, c.model); err != nil {
		return fmt.Errorf("model %s: %w", c.model, err)
	}
	return nil
}
