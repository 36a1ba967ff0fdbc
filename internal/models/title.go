package models

import "errors"

var ErrUnknownSegment = errors.New("unknown title segment")

type SegmentPosition string

const (
	Top1    SegmentPosition = "top1"
	Top2    SegmentPosition = "top2"
	Bottom1 SegmentPosition = "bottom1"
	Bottom2 SegmentPosition = "bottom2"
)

type SegmentField string

const (
	FieldText  SegmentField = "text"
	FieldColor SegmentField = "color"
)

// TextSegment is a piece of title text with its own color. Colors are kept
// as given (normally a hex string) and never range-checked.
type TextSegment struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// TitleComposition is the fixed two-line, two-segments-per-line title sent
// to the generation model. Line 1 is Top1 then Top2, line 2 is Bottom1 then
// Bottom2.
type TitleComposition struct {
	Top1    TextSegment `json:"top1"`
	Top2    TextSegment `json:"top2"`
	Bottom1 TextSegment `json:"bottom1"`
	Bottom2 TextSegment `json:"bottom2"`
}

func DefaultTitleComposition() TitleComposition {
	return TitleComposition{
		Top1:    TextSegment{Color: "#FFFF00"},
		Top2:    TextSegment{Color: "#FFFFFF"},
		Bottom1: TextSegment{Color: "#FFFFFF"},
		Bottom2: TextSegment{Color: "#FF0000"},
	}
}

func (t *TitleComposition) segment(pos SegmentPosition) (*TextSegment, bool) {
	switch pos {
	case Top1:
		return &t.Top1, true
	case Top2:
		return &t.Top2, true
	case Bottom1:
		return &t.Bottom1, true
	case Bottom2:
		return &t.Bottom2, true
	}
	return nil, false
}

// SetSegment updates a single field of a single segment.
func (t *TitleComposition) SetSegment(pos SegmentPosition, field SegmentField, value string) error {
	seg, ok := t.segment(pos)
	if !ok {
		return ErrUnknownSegment
	}
	switch field {
	case FieldText:
		seg.Text = value
	case FieldColor:
		seg.Color = value
	default:
		return ErrUnknownSegment
	}
	return nil
}

func (t TitleComposition) HasText() bool {
	return t.Top1.Text != "" || t.Top2.Text != "" || t.Bottom1.Text != "" || t.Bottom2.Text != ""
}

// Submittable reports whether the composition may be sent for generation.
func (t TitleComposition) Submittable(hasBaseImage bool) bool {
	return hasBaseImage && t.HasText()
}
