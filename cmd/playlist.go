package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/muse/internal/shared"
)

// PlaylistPush materializes a history entry as a real playlist on the
// user's linked YouTube Music account.
func (r *Runner) PlaylistPush(ctx context.Context, cmd *cli.Command) error {
	index := cmd.IntArg("index")

	sess := r.restoreSession(ctx)
	if sess == nil {
		return fmt.Errorf("%w: sign in with 'muse auth login' first", shared.ErrNoSession)
	}
	if !sess.HasYouTubeAuth {
		return fmt.Errorf("%w: run 'muse auth link' first", shared.ErrNotLinked)
	}

	if err := r.loadHistory(ctx); err != nil {
		return err
	}

	entry, err := r.historyLog.At(index)
	if err != nil {
		return err
	}

	title := cmd.String("title")
	if title == "" {
		title = entry.Title()
	}

	videoIDs := entry.VideoIDs()
	if len(videoIDs) == 0 {
		return fmt.Errorf("%w: entry %d has no playable tracks", shared.ErrInvalidArgument, index)
	}

	r.writePlain("Creating %q with %d tracks...\n", title, len(videoIDs))

	playlistID, err := r.muse.CreatePlaylist(ctx, sess.UserID, title, videoIDs)
	if err != nil {
		return err
	}

	r.logger.Info("playlist created", "playlist_id", playlistID, "tracks", len(videoIDs))
	r.writePlain("✓ Playlist created: %s\n", title)
	r.writePlain("  https://music.youtube.com/playlist?list=%s\n", playlistID)
	return nil
}
