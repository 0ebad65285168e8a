package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/shared"
)

// ArchiveRepository caches generated playlists locally, scoped by device,
// so past generations remain listable without the backend.
type ArchiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository creates an ArchiveRepository with the given database connection
func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Save stores a playlist response under the device identifier. The full
// response is kept as its JSON payload.
func (r *ArchiveRepository) Save(deviceID string, playlist *models.PlaylistResponse) error {
	payload, err := json.Marshal(playlist)
	if err != nil {
		return fmt.Errorf("failed to encode playlist: %w", err)
	}

	query := `
		INSERT INTO playlist_archive (id, device_id, prompt, primary_mood, payload)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, shared.GenerateID(), deviceID, playlist.Prompt, playlist.Mood.PrimaryMood, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert archive entry: %w", err)
	}
	return nil
}

// List returns archived playlists for the device, newest first.
func (r *ArchiveRepository) List(deviceID string) ([]models.PlaylistResponse, error) {
	query := `
		SELECT payload FROM playlist_archive
		WHERE device_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	rows, err := r.db.Query(query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var playlists []models.PlaylistResponse
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}

		var playlist models.PlaylistResponse
		if err := json.Unmarshal([]byte(payload), &playlist); err != nil {
			// Skip rows written by incompatible versions rather than
			// failing the whole listing.
			continue
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate archive rows: %w", err)
	}
	return playlists, nil
}

// Clear removes all archived playlists for the device.
func (r *ArchiveRepository) Clear(deviceID string) error {
	if _, err := r.db.Exec("DELETE FROM playlist_archive WHERE device_id = ?", deviceID); err != nil {
		return fmt.Errorf("failed to clear archive: %w", err)
	}
	return nil
}

// Count returns the number of archived playlists for the device.
func (r *ArchiveRepository) Count(deviceID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM playlist_archive WHERE device_id = ?", deviceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count archive: %w", err)
	}
	return count, nil
}
