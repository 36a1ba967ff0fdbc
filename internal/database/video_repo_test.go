package database

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kdimtricp/thumbstudio/internal/models"
)

func setupTestDB(t *testing.T) *VideoRepository {
	t.Helper()
	db, err := NewDB(Config{})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewVideoRepository(db)
}

func seed(t *testing.T, repo *VideoRepository, ids ...string) []models.VideoRecord {
	t.Helper()
	var records []models.VideoRecord
	for _, id := range ids {
		records = append(records, models.NewVideoRecord(id, "Video "+id))
	}
	if err := repo.ReplaceAll(records); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	return records
}

func TestVideoRepository_ReplaceAllKeepsOrder(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo, "aaaaaaaaaaa", "bbbbbbbbbbb")
	want := seed(t, repo, "zzzzzzzzzzz", "ccccccccccc", "aaaaaaaaaaa")

	got, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestVideoRepository_GetNotFound(t *testing.T) {
	repo := setupTestDB(t)

	if _, err := repo.Get("missing0000"); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("Get: got %v, want ErrVideoNotFound", err)
	}
	if _, err := repo.ToggleSelected("missing0000"); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("ToggleSelected: got %v, want ErrVideoNotFound", err)
	}
	if _, _, err := repo.AdvanceLadder("missing0000"); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("AdvanceLadder: got %v, want ErrVideoNotFound", err)
	}
}

func TestVideoRepository_Selection(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo, "aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc")

	v, err := repo.ToggleSelected("bbbbbbbbbbb")
	if err != nil {
		t.Fatalf("ToggleSelected: %v", err)
	}
	if v.Selected {
		t.Error("record should be deselected after one toggle")
	}

	selected, err := repo.Selected()
	if err != nil {
		t.Fatalf("Selected: %v", err)
	}
	if len(selected) != 2 || selected[0].ID != "aaaaaaaaaaa" || selected[1].ID != "ccccccccccc" {
		t.Errorf("unexpected selection: %+v", selected)
	}

	// Not all selected, so toggling all selects everything.
	state, err := repo.ToggleAll()
	if err != nil {
		t.Fatalf("ToggleAll: %v", err)
	}
	if !state {
		t.Error("expected ToggleAll to select everything")
	}

	state, err = repo.ToggleAll()
	if err != nil {
		t.Fatalf("ToggleAll: %v", err)
	}
	if state {
		t.Error("expected ToggleAll to deselect everything")
	}
	if selected, _ := repo.Selected(); len(selected) != 0 {
		t.Errorf("expected empty selection, got %d", len(selected))
	}
}

func TestVideoRepository_AdvanceLadder(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo, "dQw4w9WgXcQ")

	steps := []struct {
		wantAdvanced bool
		wantURL      string
		wantStep     models.LadderStep
	}{
		{true, "https://img.youtube.com/vi/dQw4w9WgXcQ/sddefault.jpg", models.StepStandard},
		{true, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", models.StepHigh},
		{false, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", models.StepExhausted},
		{false, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", models.StepExhausted},
	}

	for i, want := range steps {
		v, advanced, err := repo.AdvanceLadder("dQw4w9WgXcQ")
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if advanced != want.wantAdvanced || v.ThumbnailURL != want.wantURL || v.Step != want.wantStep {
			t.Errorf("step %d: got (%v, %s, %v), want (%v, %s, %v)", i, advanced, v.ThumbnailURL, v.Step, want.wantAdvanced, want.wantURL, want.wantStep)
		}

		stored, err := repo.Get("dQw4w9WgXcQ")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if stored.Step != want.wantStep || stored.ThumbnailURL != want.wantURL {
			t.Errorf("step %d: stored (%s, %v), want (%s, %v)", i, stored.ThumbnailURL, stored.Step, want.wantURL, want.wantStep)
		}
	}
}

func TestVideoRepository_ReplaceResetsLadder(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo, "dQw4w9WgXcQ")
	if _, _, err := repo.AdvanceLadder("dQw4w9WgXcQ"); err != nil {
		t.Fatalf("AdvanceLadder: %v", err)
	}

	seed(t, repo, "dQw4w9WgXcQ")
	v, err := repo.Get("dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Step != models.StepMaxRes {
		t.Errorf("step = %v, want maxres after replacement", v.Step)
	}
}

func TestVideoRepository_Clear(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo, "aaaaaaaaaaa")

	if err := repo.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	videos, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("expected empty list, got %d", len(videos))
	}
}
