package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingAPIKey     = errors.New("API key is missing")
	ErrImageFetchTimeout = errors.New("image download timed out")
	ErrNoAnalysis        = errors.New("no analysis generated")
	ErrNoCandidates      = errors.New("no candidates returned from the model")
	ErrNoImageData       = errors.New("the model returned a response, but no image data was found")
)

const refusalPreviewLength = 200

// FetchError is a failed thumbnail download. StatusCode is zero when no
// HTTP response was received.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch thumbnail (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("network error fetching image: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ModelUnavailableError means the model was not found or the key lacks
// permission to use it.
type ModelUnavailableError struct {
	Model string
	Hint  string
	Err   error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %q was not found (404). %s", e.Model, e.Hint)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// RefusalError carries the text a generation model returned instead of an
// image, usually a safety refusal or an explanation.
type RefusalError struct {
	Text string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("model returned text instead of image (safety/refusal): %s...", preview(e.Text, refusalPreviewLength))
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsAny(s string, signals ...string) bool {
	for _, sig := range signals {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}
