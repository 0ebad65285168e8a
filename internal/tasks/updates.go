package tasks

import (
	"fmt"

	"github.com/desertthunder/muse/internal/models"
)

// ProgressUpdate represents a progress event during playlist generation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase      Phase                    // Generation phase
	Generation uint64                   // Attempt that produced this update
	Message    string                   // Human-readable message for display
	Narrative  string                   // Full narrative buffer so far
	Playlist   *models.PlaylistResponse // Set on the Done phase
	Err        error                    // Set on the Errored phase
}

// Generation phase enumeration
type Phase int

const (
	Submitted Phase = iota
	StreamOpened
	NarrativeChunk
	StatusChanged
	Done
	Errored
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Submitted:
		return "submitted"
	case StreamOpened:
		return "stream_opened"
	case NarrativeChunk:
		return "narrative_chunk"
	case StatusChanged:
		return "status_changed"
	case Done:
		return "done"
	case Errored:
		return "errored"
	case Cancelled:
		return "cancelled"
	default:
		return ""
	}
}

func submittedUpdate(gen uint64, prompt string) ProgressUpdate {
	return ProgressUpdate{
		Phase:      Submitted,
		Generation: gen,
		Message:    fmt.Sprintf("Generating playlist for %q...", prompt),
	}
}

func streamOpenedUpdate(gen uint64) ProgressUpdate {
	return ProgressUpdate{
		Phase:      StreamOpened,
		Generation: gen,
		Message:    "Connected, waiting for the first chunk...",
	}
}

func narrativeUpdate(gen uint64, narrative string) ProgressUpdate {
	return ProgressUpdate{
		Phase:      NarrativeChunk,
		Generation: gen,
		Narrative:  narrative,
	}
}

func statusUpdate(gen uint64, status string) ProgressUpdate {
	return ProgressUpdate{
		Phase:      StatusChanged,
		Generation: gen,
		Message:    status,
	}
}

func doneUpdate(gen uint64, pl *models.PlaylistResponse) ProgressUpdate {
	return ProgressUpdate{
		Phase:      Done,
		Generation: gen,
		Message:    fmt.Sprintf("Playlist ready: %s (%d tracks)", pl.Title(), len(pl.Tracks)),
		Playlist:   pl,
	}
}

func erroredUpdate(gen uint64, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:      Errored,
		Generation: gen,
		Message:    fmt.Sprintf("Generation failed: %v", err),
		Err:        err,
	}
}

func cancelledUpdate(gen uint64) ProgressUpdate {
	return ProgressUpdate{
		Phase:      Cancelled,
		Generation: gen,
		Message:    "Generation cancelled",
	}
}
