package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/muse/internal/models"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = historyItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Duration != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Duration)
	}
	if !i.track.Playable() {
		desc = fmt.Sprintf("%s • unavailable", desc)
	}
	return desc
}

// historyItem wraps [models.PlaylistResponse] to implement [list.Item].
type historyItem struct {
	playlist models.PlaylistResponse
}

func (i historyItem) FilterValue() string { return i.playlist.Title() }
func (i historyItem) Title() string       { return i.playlist.Title() }
func (i historyItem) Description() string {
	desc := fmt.Sprintf("%d tracks", len(i.playlist.Tracks))
	if i.playlist.Prompt != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Prompt)
	}
	return desc
}
