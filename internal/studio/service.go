package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kdimtricp/thumbstudio/internal/ai"
	"github.com/kdimtricp/thumbstudio/internal/models"
	"github.com/kdimtricp/thumbstudio/internal/storage"
)

var (
	ErrNoSession      = errors.New("no active studio session")
	ErrBusy           = errors.New("an analysis or generation is already running")
	ErrNotSubmittable = errors.New("a base image, a style recipe and at least one title segment are required")
	ErrWrongMode      = errors.New("session is not in generate mode")
	ErrNotImage       = errors.New("uploaded file is not an image")
	ErrNoResult       = errors.New("no generated image available")
)

type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, base ai.Image, recipe string, title models.TitleComposition) (ai.Image, error)
}

// Service owns the single studio session. At most one analysis or
// generation runs at a time, and every open or close starts a new
// generation so results of superseded operations are dropped.
type Service struct {
	analyzer  Analyzer
	generator Generator
	store     storage.Storage

	mu          sync.Mutex
	session     *Session
	generation  uint64
	inflight    uint64
	subscribers map[chan Snapshot]struct{}

	wg sync.WaitGroup
}

func NewService(analyzer Analyzer, generator Generator, store storage.Storage) *Service {
	return &Service{
		analyzer:    analyzer,
		generator:   generator,
		store:       store,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

func (s *Service) busyLocked() bool {
	return s.inflight != 0
}

// OpenAnalysis replaces the current session with a new one and starts
// analyzing the image at imageURL in the background.
func (s *Service) OpenAnalysis(imageURL string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busyLocked() {
		return Snapshot{}, ErrBusy
	}

	s.resetLocked()
	session := newSession(uuid.New().String(), ModeAnalysis)
	session.SourceURL = imageURL
	session.Status = ProcessingStatus{Message: "Analyzing thumbnail style...", Type: StatusLoading}
	s.session = session

	gen := s.generation
	s.inflight = gen
	s.wg.Add(1)
	go s.runAnalysis(gen, imageURL)

	log.Printf("[STUDIO] Started analysis %s for %s", session.ID, imageURL)
	return s.publishLocked(), nil
}

func (s *Service) runAnalysis(gen uint64, imageURL string) {
	defer s.wg.Done()

	recipe, err := s.analyzer.Analyze(context.Background(), imageURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) {
		log.Printf("[STUDIO] Discarding analysis result from superseded generation %d", gen)
		return
	}
	s.inflight = 0

	if err != nil {
		s.session.Status = ProcessingStatus{Message: UserMessage(err), Type: StatusError}
	} else {
		s.session.Recipe = recipe
		s.session.Status = ProcessingStatus{Message: "Analysis complete.", Type: StatusSuccess}
	}
	s.publishLocked()
}

// OpenGenerator starts a session directly in generate mode with a pasted
// recipe, skipping analysis.
func (s *Service) OpenGenerator(recipe string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busyLocked() {
		return Snapshot{}, ErrBusy
	}

	s.resetLocked()
	session := newSession(uuid.New().String(), ModeGenerate)
	session.Recipe = recipe
	s.session = session

	log.Printf("[STUDIO] Opened generator %s", session.ID)
	return s.publishLocked(), nil
}

// SwitchToGenerate moves the session to generate mode, carrying the recipe
// text forward.
func (s *Service) SwitchToGenerate() (Snapshot, error) {
	return s.update(func(session *Session) error {
		session.Mode = ModeGenerate
		session.Status = ProcessingStatus{Type: StatusIdle}
		return nil
	})
}

func (s *Service) SetRecipe(recipe string) (Snapshot, error) {
	return s.update(func(session *Session) error {
		session.Recipe = recipe
		return nil
	})
}

func (s *Service) SetSegment(pos models.SegmentPosition, field models.SegmentField, value string) (Snapshot, error) {
	return s.update(func(session *Session) error {
		return session.Title.SetSegment(pos, field, value)
	})
}

// SetBaseImage stores a new background image. Any previous generated result
// is dropped.
func (s *Service) SetBaseImage(r io.Reader, filename, mimeType string) (Snapshot, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return Snapshot{}, ErrNotImage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Snapshot{}, ErrNoSession
	}
	if s.busyLocked() {
		return Snapshot{}, ErrBusy
	}
	if s.session.Mode != ModeGenerate {
		return Snapshot{}, ErrWrongMode
	}

	counter := &countingReader{r: r}
	name, err := s.store.SaveFile(counter, storage.FileInfo{Filename: filename, ContentType: mimeType})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to store base image: %w", err)
	}

	s.deleteLocked(s.session.BaseImage)
	s.deleteLocked(s.session.Generated)
	s.session.BaseImage = &StoredImage{Name: name, MIMEType: mimeType, Size: counter.n}
	s.session.Generated = nil
	s.session.Status = ProcessingStatus{Type: StatusIdle}

	return s.publishLocked(), nil
}

// Edits carry the recipe and title as the client last saw them. Nil fields
// leave the session's values alone.
type Edits struct {
	Recipe *string                  `json:"recipe,omitempty"`
	Title  *models.TitleComposition `json:"title,omitempty"`
}

// Generate applies edits, validates the session and starts generation in the
// background. Edits are kept even when the session is not yet submittable.
func (s *Service) Generate(edits Edits) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.session
	if session == nil {
		return Snapshot{}, ErrNoSession
	}
	if s.busyLocked() {
		return Snapshot{}, ErrBusy
	}
	if session.Mode != ModeGenerate {
		return Snapshot{}, ErrWrongMode
	}
	if edits.Recipe != nil {
		session.Recipe = *edits.Recipe
	}
	if edits.Title != nil {
		session.Title = *edits.Title
	}
	if !session.submittable() {
		if edits.Recipe != nil || edits.Title != nil {
			s.publishLocked()
		}
		return Snapshot{}, ErrNotSubmittable
	}

	base, err := s.readLocked(session.BaseImage)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read base image: %w", err)
	}

	s.generation++
	gen := s.generation
	s.inflight = gen
	session.Status = ProcessingStatus{Message: "Generating thumbnail...", Type: StatusLoading}

	s.wg.Add(1)
	go s.runGeneration(gen, base, session.Recipe, session.Title)

	log.Printf("[STUDIO] Started generation %d for session %s", gen, session.ID)
	return s.publishLocked(), nil
}

func (s *Service) runGeneration(gen uint64, base ai.Image, recipe string, title models.TitleComposition) {
	defer s.wg.Done()

	img, err := s.generator.Generate(context.Background(), base, recipe, title)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) {
		log.Printf("[STUDIO] Discarding generation result from superseded generation %d", gen)
		return
	}
	s.inflight = 0

	if err != nil {
		s.session.Status = ProcessingStatus{Message: UserMessage(err), Type: StatusError}
		s.publishLocked()
		return
	}

	name, err := s.store.SaveFile(bytes.NewReader(img.Data), storage.FileInfo{ContentType: img.MIMEType})
	if err != nil {
		log.Printf("[STUDIO] Error storing generated image: %v", err)
		s.session.Status = ProcessingStatus{Message: "Failed to store the generated image.", Type: StatusError}
		s.publishLocked()
		return
	}

	s.deleteLocked(s.session.Generated)
	s.session.Generated = &StoredImage{Name: name, MIMEType: img.MIMEType, Size: int64(len(img.Data))}
	s.session.GeneratedAt = time.Now()
	s.session.Status = ProcessingStatus{Message: "Thumbnail generated.", Type: StatusSuccess}
	s.publishLocked()
}

// Close discards the session. An operation still running keeps running but
// its result is ignored.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		log.Printf("[STUDIO] Closing session %s", s.session.ID)
	}
	s.resetLocked()
	s.publishLocked()
}

// Snapshot returns a copy of the active session.
func (s *Service) Snapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Snapshot{}, false
	}
	return s.session.snapshot(s.busyLocked()), true
}

// GeneratedImage opens the latest generated image.
func (s *Service) GeneratedImage() (io.ReadSeekCloser, StoredImage, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, StoredImage{}, time.Time{}, ErrNoSession
	}
	if s.session.Generated == nil {
		return nil, StoredImage{}, time.Time{}, ErrNoResult
	}

	f, err := s.store.OpenFile(s.session.Generated.Name)
	if err != nil {
		return nil, StoredImage{}, time.Time{}, err
	}
	return f, *s.session.Generated, s.session.GeneratedAt, nil
}

// Subscribe returns a channel receiving a snapshot after every change. The
// returned func unsubscribes. Slow readers miss intermediate snapshots.
func (s *Service) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Wait blocks until every background operation has returned or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) update(fn func(*Session) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Snapshot{}, ErrNoSession
	}
	if s.busyLocked() {
		return Snapshot{}, ErrBusy
	}
	if err := fn(s.session); err != nil {
		return Snapshot{}, err
	}
	return s.publishLocked(), nil
}

func (s *Service) currentLocked(gen uint64) bool {
	return s.session != nil && s.generation == gen && s.inflight == gen
}

// resetLocked drops the session and its blobs and starts a new generation.
func (s *Service) resetLocked() {
	if s.session != nil {
		s.deleteLocked(s.session.BaseImage)
		s.deleteLocked(s.session.Generated)
	}
	s.session = nil
	s.generation++
	s.inflight = 0
}

func (s *Service) deleteLocked(img *StoredImage) {
	if img == nil {
		return
	}
	if err := s.store.DeleteFile(img.Name); err != nil {
		log.Printf("[STUDIO] Error deleting %s: %v", img.Name, err)
	}
}

func (s *Service) readLocked(img *StoredImage) (ai.Image, error) {
	f, err := s.store.OpenFile(img.Name)
	if err != nil {
		return ai.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ai.Image{}, err
	}
	return ai.Image{Data: data, MIMEType: img.MIMEType}, nil
}

func (s *Service) publishLocked() Snapshot {
	var snap Snapshot
	if s.session != nil {
		snap = s.session.snapshot(s.busyLocked())
	}
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
