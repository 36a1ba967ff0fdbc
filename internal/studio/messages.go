package studio

import (
	"errors"
	"strings"

	"github.com/kdimtricp/thumbstudio/internal/ai"
)

// UserMessage turns an analysis or generation failure into status text.
// Errors without a specific mapping pass their own message through.
func UserMessage(err error) string {
	var (
		fetchErr    *ai.FetchError
		unavailable *ai.ModelUnavailableError
		refusal     *ai.RefusalError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ai.ErrMissingAPIKey):
		return "API key is missing. Set GEMINI_API_KEY (or OPENAI_API_KEY for the OpenAI analyzer) and restart."
	case errors.Is(err, ai.ErrImageFetchTimeout):
		return "Timed out downloading the thumbnail (15s). Check your connection and try again."
	case errors.As(err, &fetchErr):
		return fetchErr.Error()
	case errors.As(err, &unavailable):
		return unavailable.Error()
	case errors.As(err, &refusal):
		return refusal.Error()
	case strings.Contains(err.Error(), "Requested entity was not found"):
		return "API key error: the configured key cannot use this model. Check the key and try again."
	case err.Error() == "":
		return "Something went wrong while processing the thumbnail. Please try again."
	}
	return err.Error()
}
