package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/muse/internal/formatter"
	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/shared"
)

// loadHistory fills the history log for the current identity. Signed-in
// users read their server-side history; anonymous users read the
// device-scoped one.
func (r *Runner) loadHistory(ctx context.Context) error {
	if sess := r.restoreSession(ctx); sess != nil {
		return r.historyLog.Load(ctx, sess.UserID)
	}
	return r.historyLog.LoadDevice(ctx, r.deviceID())
}

// HistoryList prints past generations, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	var entries []models.PlaylistResponse

	if cmd.Bool("local") {
		local, err := r.historyLog.Local(r.deviceID())
		if err != nil {
			return fmt.Errorf("failed to read local archive: %w", err)
		}
		entries = local
	} else {
		if err := r.loadHistory(ctx); err != nil {
			return err
		}
		entries = r.historyLog.Entries()
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		r.writePlain("No playlists yet. Try 'muse generate \"rainy sunday morning\"'.\n")
		return nil
	}

	for i, entry := range entries {
		r.writePlain("[%d] %s\n", i, entry.Title())
		r.writePlain("    %d tracks · %q\n", len(entry.Tracks), entry.Prompt)
	}
	return nil
}

// HistoryDelete removes one entry by its listed index.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	index := cmd.IntArg("index")

	sess := r.restoreSession(ctx)
	if sess == nil {
		return fmt.Errorf("%w: history deletion requires sign-in", shared.ErrNoSession)
	}

	if err := r.loadHistory(ctx); err != nil {
		return err
	}

	if err := r.historyLog.DeleteAt(ctx, sess.UserID, index); err != nil {
		return err
	}

	r.logger.Info("history entry deleted", "index", index)
	return r.writePlain("✓ Deleted entry %d (%d remaining)\n", index, r.historyLog.Len())
}

// HistoryClear erases the entire server-side history.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	sess := r.restoreSession(ctx)
	if sess == nil {
		return fmt.Errorf("%w: history clearing requires sign-in", shared.ErrNoSession)
	}

	if err := r.historyLog.Clear(ctx, sess.UserID); err != nil {
		return err
	}

	r.logger.Info("history cleared")
	return r.writePlain("✓ History cleared\n")
}

// HistoryExport writes one history entry to disk as CSV, Markdown, or text.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	index := cmd.IntArg("index")
	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")

	if err := r.loadHistory(ctx); err != nil {
		return err
	}

	entry, err := r.historyLog.At(index)
	if err != nil {
		return err
	}

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(entry, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported to %s\n", result.TracksFile)
		r.writePlain("  Metadata: %s\n", result.MetadataFile)
	case "markdown", "md":
		var cover string
		for _, track := range entry.Tracks {
			if track.ThumbnailURL != "" {
				cover = track.ThumbnailURL
				break
			}
		}
		result, err := formatter.WriteMarkdownExport(entry, output, cover)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported to %s (%d files)\n", result.Directory, len(result.Files))
	case "text", "txt":
		path, err := formatter.WriteTextExport(entry, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q (want csv, markdown, or text)", shared.ErrInvalidArgument, format)
	}

	return nil
}
