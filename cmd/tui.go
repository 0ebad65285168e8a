package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/muse/internal/player"
	"github.com/desertthunder/muse/internal/shared"
	"github.com/desertthunder/muse/internal/ui"
)

// TUI launches the interactive terminal UI for mood-driven playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/muse-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	identity := ui.Identity{DeviceID: r.deviceID()}
	if sess := r.restoreSession(ctx); sess != nil {
		identity.UserID = sess.UserID
	}

	session := r.newStreamSession()
	coordinator := player.NewCoordinator(nil)

	model := ui.NewModel(ctx, session, coordinator, r.historyLog, identity)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
