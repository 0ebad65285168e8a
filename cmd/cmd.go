// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Google",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Google identity token (skips the browser flow)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:    "link",
				Aliases: []string{"yt", "youtube"},
				Usage:   "Link your YouTube Music account",
				Action:  r.AuthLink,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Clear the local session",
				Action: r.AuthLogout,
			},
		},
	}
}

// generateCommand turns a mood prompt into a playlist
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a playlist from a mood prompt",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "prompt",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-stream",
				Usage: "Wait for the finished playlist instead of streaming progress",
			},
			&cli.StringFlag{
				Name:  "energy",
				Usage: "Preferred energy curve (ascending, descending, steady, wave)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Generate,
	}
}

// historyCommand handles playlist history operations
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse and manage generated playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List past generations, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "local",
						Usage: "Read the local archive instead of the backend",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "delete",
				Usage: "Delete one history entry by index (0 = newest)",
				Arguments: []cli.Argument{
					&cli.IntArg{
						Name: "index",
					},
				},
				Action: r.HistoryDelete,
			},
			{
				Name:   "clear",
				Usage:  "Erase the entire history",
				Action: r.HistoryClear,
			},
			{
				Name:  "export",
				Usage: "Export one history entry to a file",
				Arguments: []cli.Argument{
					&cli.IntArg{
						Name: "index",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, or text",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (file or directory depending on format)",
					},
				},
				Action: r.HistoryExport,
			},
		},
	}
}

// playlistCommand materializes playlists on YouTube Music
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations on the linked music account",
		Commands: []*cli.Command{
			{
				Name:  "push",
				Usage: "Create a history entry as a real YouTube Music playlist",
				Arguments: []cli.Argument{
					&cli.IntArg{
						Name: "index",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Override the playlist title",
					},
				},
				Action: r.PlaylistPush,
			},
		},
	}
}

// apiCommand handles direct API calls against the muse backend
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the muse backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a starter config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Destination path",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist generation.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive mood-to-playlist UI",
		Action:  r.TUI,
	}
}
