package models

import "fmt"

// VideoRecord is one entry in the working list of thumbnails.
type VideoRecord struct {
	ID           string     `json:"id"`
	CanonicalURL string     `json:"url"`
	Title        string     `json:"title,omitempty"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	Selected     bool       `json:"selected"`
	Step         LadderStep `json:"ladderStep"`
}

func NewVideoRecord(id, title string) VideoRecord {
	return VideoRecord{
		ID:           id,
		CanonicalURL: WatchURL(id),
		Title:        title,
		ThumbnailURL: ThumbnailURL(id, VariantMaxRes),
		Selected:     true,
		Step:         StepMaxRes,
	}
}

func WatchURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}

// AdvanceLadder moves the record one step down the resolution ladder after
// its current thumbnail failed to load. It reports whether a new variant
// should be requested; once the ladder is exhausted the URL is left alone.
func (v *VideoRecord) AdvanceLadder() bool {
	if v.Step >= StepExhausted {
		return false
	}
	v.Step = Next(v.Step)
	variant, ok := v.Step.Variant()
	if !ok {
		return false
	}
	v.ThumbnailURL = ThumbnailURL(v.ID, variant)
	return true
}
