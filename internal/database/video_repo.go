package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/kdimtricp/thumbstudio/internal/models"
)

var ErrVideoNotFound = errors.New("video not found")

const videoColumns = "id, url, title, thumbnail_url, selected, ladder_step"

// VideoRepository keeps the working list of thumbnails in insertion order.
type VideoRepository struct {
	db *DB
}

func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (models.VideoRecord, error) {
	var v models.VideoRecord
	var step int
	err := row.Scan(&v.ID, &v.CanonicalURL, &v.Title, &v.ThumbnailURL, &v.Selected, &step)
	v.Step = models.LadderStep(step)
	return v, err
}

// ReplaceAll swaps the whole working list for records, keeping their order.
func (r *VideoRepository) ReplaceAll(records []models.VideoRecord) error {
	tx, err := r.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM videos"); err != nil {
		return fmt.Errorf("failed to clear videos: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO videos (" + videoColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range records {
		if _, err := stmt.Exec(v.ID, v.CanonicalURL, v.Title, v.ThumbnailURL, v.Selected, int(v.Step)); err != nil {
			return fmt.Errorf("failed to insert video %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit videos: %w", err)
	}
	return nil
}

func (r *VideoRepository) List() ([]models.VideoRecord, error) {
	return r.query("SELECT " + videoColumns + " FROM videos ORDER BY position")
}

func (r *VideoRepository) Selected() ([]models.VideoRecord, error) {
	return r.query("SELECT " + videoColumns + " FROM videos WHERE selected = 1 ORDER BY position")
}

func (r *VideoRepository) query(q string, args ...any) ([]models.VideoRecord, error) {
	rows, err := r.db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := []models.VideoRecord{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (r *VideoRepository) Get(id string) (*models.VideoRecord, error) {
	return getVideo(r.db.conn.QueryRow("SELECT "+videoColumns+" FROM videos WHERE id = ?", id))
}

func getVideo(row *sql.Row) (*models.VideoRecord, error) {
	v, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return &v, nil
}

func (r *VideoRepository) ToggleSelected(id string) (*models.VideoRecord, error) {
	res, err := r.db.conn.Exec("UPDATE videos SET selected = NOT selected WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle video: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrVideoNotFound
	}
	return r.Get(id)
}

func (r *VideoRepository) SetAllSelected(selected bool) error {
	if _, err := r.db.conn.Exec("UPDATE videos SET selected = ?", selected); err != nil {
		return fmt.Errorf("failed to update selection: %w", err)
	}
	return nil
}

// ToggleAll deselects everything when every record is selected and selects
// everything otherwise. It returns the new selection state.
func (r *VideoRepository) ToggleAll() (bool, error) {
	var unselected int
	if err := r.db.conn.QueryRow("SELECT COUNT(*) FROM videos WHERE selected = 0").Scan(&unselected); err != nil {
		return false, fmt.Errorf("failed to count selection: %w", err)
	}
	selected := unselected > 0
	return selected, r.SetAllSelected(selected)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func updateThumbnail(db execer, id, thumbnailURL string, step models.LadderStep) error {
	res, err := db.Exec("UPDATE videos SET thumbnail_url = ?, ladder_step = ? WHERE id = ?", thumbnailURL, int(step), id)
	if err != nil {
		return fmt.Errorf("failed to update thumbnail: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// AdvanceLadder records a failed thumbnail load for id and moves it to the
// next variant. The boolean is false once no variant is left.
func (r *VideoRepository) AdvanceLadder(id string) (*models.VideoRecord, bool, error) {
	tx, err := r.db.conn.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	v, err := getVideo(tx.QueryRow("SELECT "+videoColumns+" FROM videos WHERE id = ?", id))
	if err != nil {
		return nil, false, err
	}

	prev := v.Step
	advanced := v.AdvanceLadder()
	if v.Step != prev {
		if err := updateThumbnail(tx, id, v.ThumbnailURL, v.Step); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit thumbnail: %w", err)
	}
	return v, advanced, nil
}

func (r *VideoRepository) Clear() error {
	if _, err := r.db.conn.Exec("DELETE FROM videos"); err != nil {
		return fmt.Errorf("failed to clear videos: %w", err)
	}
	return nil
}
