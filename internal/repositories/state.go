package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// StateRepository persists durable identifier strings in the local_state
// table. It satisfies the session package's KV interface.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a StateRepository with the given database connection
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get returns the value stored under key, or "" when the key is absent.
func (r *StateRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM local_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state key %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value under key.
func (r *StateRepository) Set(key, value string) error {
	query := `
		INSERT INTO local_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to write state key %s: %w", key, err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is not an error.
func (r *StateRepository) Remove(key string) error {
	if _, err := r.db.Exec("DELETE FROM local_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to remove state key %s: %w", key, err)
	}
	return nil
}
