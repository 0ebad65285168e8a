// Package history maintains the client-side view of generated playlists:
// a cached copy of the backend's history plus a local sqlite archive for
// offline recall.
//
// Index 0 is always the newest entry, matching the backend's ordering.
// Loads are fail-soft: a fetch error surfaces to the caller but leaves
// the previously loaded entries intact. Deletions are confirmed-only:
// the cached list changes only after the backend acknowledges.
package history

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/repositories"
	"github.com/desertthunder/muse/internal/shared"
)

// Backend defines the history operations the muse API exposes.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type Backend interface {
	UserHistory(ctx context.Context, userID string) ([]models.PlaylistResponse, error)
	DeviceHistory(ctx context.Context, deviceID string) ([]models.PlaylistResponse, error)
	DeleteHistoryItem(ctx context.Context, userID string, index int) error
	ClearHistory(ctx context.Context, userID string) error
}

// Log caches one scope's history entries, newest first.
type Log struct {
	mu      sync.Mutex
	backend Backend
	archive *repositories.ArchiveRepository
	logger  *log.Logger
	entries []models.PlaylistResponse
	loaded  bool
}

// NewLog creates an empty history log. The archive repository is
// optional; when nil, local archiving is disabled.
func NewLog(backend Backend, archive *repositories.ArchiveRepository, logger *log.Logger) *Log {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Log{backend: backend, archive: archive, logger: logger}
}

// Load replaces the cached entries with the signed-in user's history.
// On failure the previous entries are retained and the error returned.
func (l *Log) Load(ctx context.Context, userID string) error {
	entries, err := l.backend.UserHistory(ctx, userID)
	if err != nil {
		l.logger.Warn("history load failed, keeping cached entries", "error", err)
		return err
	}
	l.replace(entries)
	return nil
}

// LoadDevice replaces the cached entries with the anonymous
// device-scoped history. Same fail-soft contract as Load.
func (l *Log) LoadDevice(ctx context.Context, deviceID string) error {
	entries, err := l.backend.DeviceHistory(ctx, deviceID)
	if err != nil {
		l.logger.Warn("device history load failed, keeping cached entries", "error", err)
		return err
	}
	l.replace(entries)
	return nil
}

func (l *Log) replace(entries []models.PlaylistResponse) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.loaded = true
}

// Entries returns a copy of the cached history, newest first.
func (l *Log) Entries() []models.PlaylistResponse {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.PlaylistResponse, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of cached entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// At returns the cached entry at index, 0 being the newest.
func (l *Log) At(index int) (*models.PlaylistResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.entries) {
		return nil, fmt.Errorf("%w: history index %d out of range [0,%d)", shared.ErrInvalidArgument, index, len(l.entries))
	}
	entry := l.entries[index]
	return &entry, nil
}

// Loaded reports whether any load has succeeded yet.
func (l *Log) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// DeleteAt removes the entry at index for the user. The cached list is
// spliced only after the backend confirms, so a failed delete leaves
// the view unchanged. Indices of later entries shift down by one.
func (l *Log) DeleteAt(ctx context.Context, userID string, index int) error {
	l.mu.Lock()
	if index < 0 || index >= len(l.entries) {
		n := len(l.entries)
		l.mu.Unlock()
		return fmt.Errorf("%w: history index %d out of range [0,%d)", shared.ErrInvalidArgument, index, n)
	}
	l.mu.Unlock()

	if err := l.backend.DeleteHistoryItem(ctx, userID, index); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if index < len(l.entries) {
		l.entries = append(l.entries[:index], l.entries[index+1:]...)
	}
	return nil
}

// Clear erases the user's entire backend history and empties the cache
// once the backend confirms.
func (l *Log) Clear(ctx context.Context, userID string) error {
	if err := l.backend.ClearHistory(ctx, userID); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	return nil
}

// Record mirrors a completed playlist into the local archive so it
// survives offline. A nil archive makes this a no-op.
func (l *Log) Record(deviceID string, playlist *models.PlaylistResponse) error {
	if l.archive == nil || playlist == nil {
		return nil
	}
	if err := l.archive.Save(deviceID, playlist); err != nil {
		l.logger.Warn("failed to archive playlist locally", "error", err)
		return err
	}
	return nil
}

// Local returns the device's locally archived playlists, newest first.
func (l *Log) Local(deviceID string) ([]models.PlaylistResponse, error) {
	if l.archive == nil {
		return nil, nil
	}
	return l.archive.List(deviceID)
}
