// Package youtube turns pasted links and channel references into the
// working list of video records.
package youtube

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kdimtricp/thumbstudio/internal/models"
)

const videoIDLength = 11

var (
	ErrEmptyInput = errors.New("enter at least one video URL")
	ErrNoValidIDs = errors.New("no valid YouTube video IDs found")
)

// Watch, short link, embed, legacy /v/ and /u/<n>/ URL shapes. The leading
// .* is greedy so the last recognised marker in a token wins.
var videoURLPattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ExtractVideoID returns the 11-character video identifier embedded in a
// single URL token.
func ExtractVideoID(token string) (string, bool) {
	m := videoURLPattern.FindStringSubmatch(token)
	if m == nil || len(m[2]) != videoIDLength {
		return "", false
	}
	return m[2], true
}

// ParseVideoInput extracts every distinct video from free-form text, in the
// order each one first appears. Tokens that are not video URLs are skipped.
func ParseVideoInput(text string) ([]models.VideoRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})

	seen := make(map[string]bool)
	var records []models.VideoRecord
	for _, token := range tokens {
		id, ok := ExtractVideoID(token)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		records = append(records, models.NewVideoRecord(id, fmt.Sprintf("Video %s", id)))
	}

	if len(records) == 0 {
		return nil, ErrNoValidIDs
	}
	return records, nil
}
