package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/services"
	"github.com/desertthunder/muse/internal/shared"
	"github.com/desertthunder/muse/internal/tasks"
)

// Generate turns a mood prompt into a playlist.
//
// By default the backend's progress streams to the terminal as it
// arrives; --no-stream blocks until the finished playlist.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(cmd.StringArg("prompt"))
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	req := services.GenerateRequest{
		Prompt:               prompt,
		DeviceID:             r.deviceID(),
		PreferredEnergyCurve: cmd.String("energy"),
	}
	if sess := r.restoreSession(ctx); sess != nil {
		req.UserID = sess.UserID
	}

	var playlist *models.PlaylistResponse
	var err error
	if cmd.Bool("no-stream") {
		playlist, err = r.generateBlocking(ctx, req)
	} else {
		playlist, err = r.generateStreaming(ctx, req)
	}
	if err != nil {
		return err
	}

	if r.historyLog != nil {
		if err := r.historyLog.Record(req.DeviceID, playlist); err != nil {
			r.logger.Warn("failed to archive playlist", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	r.writePlainHeader(playlist.Title())
	if playlist.Mood.PrimaryMood != "" {
		r.writePlain("Mood: %s", playlist.Mood.PrimaryMood)
		if playlist.Mood.SecondaryMood != "" {
			r.writePlain(" / %s", playlist.Mood.SecondaryMood)
		}
		r.writePlain("\n")
	}
	r.writePlain("Tracks: %d\n\n", len(playlist.Tracks))
	r.writeTrackList(playlist.Tracks)
	return nil
}

// generateBlocking waits for the backend's single-response endpoint.
func (r *Runner) generateBlocking(ctx context.Context, req services.GenerateRequest) (*models.PlaylistResponse, error) {
	r.writePlain("Generating playlist for %q...\n\n", req.Prompt)
	return r.muse.Generate(ctx, req)
}

// generateStreaming drives a streaming session and relays its progress.
func (r *Runner) generateStreaming(ctx context.Context, req services.GenerateRequest) (*models.PlaylistResponse, error) {
	session := r.newStreamSession()
	if err := session.Submit(ctx, req); err != nil {
		return nil, err
	}

	printed := 0
	for {
		select {
		case update := <-session.Updates():
			switch update.Phase {
			case tasks.Submitted:
				r.writePlain("%s\n", update.Message)
			case tasks.NarrativeChunk:
				// Each update carries the full buffer; print only the
				// part we have not written yet.
				if len(update.Narrative) > printed {
					r.writePlain("%s", update.Narrative[printed:])
					printed = len(update.Narrative)
				}
			case tasks.StatusChanged:
				r.writePlain("\n· %s\n", update.Message)
			case tasks.Done:
				r.writePlain("\n\n")
				return update.Playlist, nil
			case tasks.Errored:
				r.writePlain("\n")
				return nil, update.Err
			case tasks.Cancelled:
				return nil, fmt.Errorf("generation cancelled")
			}
		case <-time.After(500 * time.Millisecond):
			// Progress updates are dropped rather than blocking the
			// stream reader, so fall back to the session's own state.
			switch session.State() {
			case tasks.StateCompleted:
				r.writePlain("\n\n")
				return session.Playlist(), nil
			case tasks.StateFailed:
				r.writePlain("\n")
				return nil, session.Err()
			}
		case <-ctx.Done():
			session.Cancel()
			return nil, ctx.Err()
		}
	}
}
