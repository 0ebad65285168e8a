package ui

import (
	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/tasks"
)

// generateUpdateMsg carries one progress event from the streaming session.
type generateUpdateMsg tasks.ProgressUpdate

// historyFetchedMsg carries the reloaded history entries.
type historyFetchedMsg struct {
	entries []models.PlaylistResponse
	err     error
}

// historyDeletedMsg reports the outcome of a history deletion.
type historyDeletedMsg struct {
	err error
}
