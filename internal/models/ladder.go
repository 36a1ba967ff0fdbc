package models

import "fmt"

// ThumbnailVariant names one of the fixed-resolution thumbnail renderings.
type ThumbnailVariant string

const (
	VariantMaxRes   ThumbnailVariant = "maxresdefault"
	VariantStandard ThumbnailVariant = "sddefault"
	VariantHigh     ThumbnailVariant = "hqdefault"
)

const thumbnailHost = "https://img.youtube.com"

func ThumbnailURL(id string, variant ThumbnailVariant) string {
	return fmt.Sprintf("%s/vi/%s/%s.jpg", thumbnailHost, id, variant)
}

// FallbackThumbnailURL is the variant that exists for every video.
func FallbackThumbnailURL(id string) string {
	return ThumbnailURL(id, VariantHigh)
}

// LadderStep is the position of a displayed image on the resolution ladder.
type LadderStep int

const (
	StepMaxRes LadderStep = iota
	StepStandard
	StepHigh
	StepExhausted
)

// Next returns the following ladder step, capped at StepExhausted.
func Next(step LadderStep) LadderStep {
	if step >= StepExhausted {
		return StepExhausted
	}
	return step + 1
}

// Variant returns the thumbnail variant requested at this step. The
// exhausted step has none.
func (s LadderStep) Variant() (ThumbnailVariant, bool) {
	switch s {
	case StepMaxRes:
		return VariantMaxRes, true
	case StepStandard:
		return VariantStandard, true
	case StepHigh:
		return VariantHigh, true
	default:
		return "", false
	}
}

func (s LadderStep) String() string {
	if v, ok := s.Variant(); ok {
		return string(v)
	}
	return "exhausted"
}
