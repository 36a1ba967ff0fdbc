package studio

import (
	"time"

	"github.com/kdimtricp/thumbstudio/internal/models"
)

type Mode string

const (
	ModeAnalysis Mode = "analysis"
	ModeGenerate Mode = "generate"
)

type StatusType string

const (
	StatusIdle    StatusType = "idle"
	StatusLoading StatusType = "loading"
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
)

// ProcessingStatus is the status line shown to the user.
type ProcessingStatus struct {
	Message string     `json:"message"`
	Type    StatusType `json:"type"`
}

// StoredImage points at an image blob in scratch storage.
type StoredImage struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Session is the single active analysis/generation flow.
type Session struct {
	ID          string
	Mode        Mode
	SourceURL   string
	Recipe      string
	Status      ProcessingStatus
	BaseImage   *StoredImage
	Title       models.TitleComposition
	Generated   *StoredImage
	GeneratedAt time.Time
}

func newSession(id string, mode Mode) *Session {
	return &Session{
		ID:     id,
		Mode:   mode,
		Status: ProcessingStatus{Type: StatusIdle},
		Title:  models.DefaultTitleComposition(),
	}
}

// Snapshot is a copy of the session safe to hand out to readers.
type Snapshot struct {
	ID          string                  `json:"id"`
	Mode        Mode                    `json:"mode"`
	SourceURL   string                  `json:"sourceUrl,omitempty"`
	Recipe      string                  `json:"recipe"`
	Status      ProcessingStatus        `json:"status"`
	BaseImage   *StoredImage            `json:"baseImage,omitempty"`
	Title       models.TitleComposition `json:"title"`
	Generated   *StoredImage            `json:"generated,omitempty"`
	GeneratedAt *time.Time              `json:"generatedAt,omitempty"`
	Busy        bool                    `json:"busy"`
	Submittable bool                    `json:"submittable"`
}

func (s *Session) snapshot(busy bool) Snapshot {
	snap := Snapshot{
		ID:          s.ID,
		Mode:        s.Mode,
		SourceURL:   s.SourceURL,
		Recipe:      s.Recipe,
		Status:      s.Status,
		Title:       s.Title,
		Busy:        busy,
		Submittable: s.submittable(),
	}
	if s.BaseImage != nil {
		img := *s.BaseImage
		snap.BaseImage = &img
	}
	if s.Generated != nil {
		img := *s.Generated
		snap.Generated = &img
		at := s.GeneratedAt
		snap.GeneratedAt = &at
	}
	return snap
}

func (s *Session) submittable() bool {
	return s.Mode == ModeGenerate && s.Recipe != "" && s.Title.Submittable(s.BaseImage != nil)
}
