package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kdimtricp/thumbstudio/internal/models"
)

// Generator renders a title onto a base image through an image-editing model.
type Generator struct {
	model ImageModel
}

func NewGenerator(model ImageModel) *Generator {
	return &Generator{model: model}
}

// Generate sends the base image, the recipe and the title to the model and
// returns the first image it produces. Callers make sure the base image,
// recipe and at least one title segment are present.
func (g *Generator) Generate(ctx context.Context, base Image, recipe string, title models.TitleComposition) (Image, error) {
	if g.model == nil || !g.model.Configured() {
		return Image{}, fmt.Errorf("%w: please select a valid API key", ErrMissingAPIKey)
	}

	prompt := BuildGenerationPrompt(recipe, title)
	log.Printf("[AI] Generating thumbnail with %s (base %d bytes, prompt %d chars)", g.model.Name(), len(base.Data), len(prompt))

	candidates, err := g.model.EditImage(ctx, base, prompt)
	if err != nil {
		log.Printf("[AI] Generate thumbnail error: %v", err)
		return Image{}, classifyGenerationError(g.model.Name(), err)
	}

	return FirstImage(candidates)
}

// FirstImage returns the first inline image of the first candidate. When the
// candidate only holds text, that text is reported as a refusal.
func FirstImage(candidates []Candidate) (Image, error) {
	if len(candidates) == 0 {
		return Image{}, ErrNoCandidates
	}

	var text strings.Builder
	for _, part := range candidates[0].Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			img := *part.InlineData
			if img.MIMEType == "" {
				img.MIMEType = "image/png"
			}
			return img, nil
		}
		text.WriteString(part.Text)
	}

	if text.Len() > 0 {
		return Image{}, &RefusalError{Text: text.String()}
	}
	return Image{}, ErrNoImageData
}

func classifyGenerationError(model string, err error) error {
	if errors.Is(err, ErrMissingAPIKey) {
		return err
	}
	if containsAny(err.Error(), "404") {
		return &ModelUnavailableError{
			Model: model,
			Hint:  "This model requires a specific API key permission.",
			Err:   err,
		}
	}
	return err
}
