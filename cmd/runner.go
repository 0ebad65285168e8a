package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/muse/internal/history"
	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/services"
	"github.com/desertthunder/muse/internal/session"
	"github.com/desertthunder/muse/internal/shared"
	"github.com/desertthunder/muse/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	client     *services.Client
	muse       *services.MuseService
	store      *session.Store
	historyLog *history.Log
	kv         session.KV
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Client     *services.Client
	Muse       *services.MuseService
	Store      *session.Store
	HistoryLog *history.Log
	KV         session.KV
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Client == nil {
		opts.Client = services.NewClient(services.ClientOpts{
			BaseURL:           opts.Config.API.BaseURL,
			TimeoutSeconds:    opts.Config.API.TimeoutSeconds,
			RequestsPerSecond: opts.Config.API.RequestsPerSecond,
			BurstSize:         opts.Config.API.BurstSize,
		})
	}
	if opts.Muse == nil {
		opts.Muse = services.NewMuseService(opts.Client)
	}
	// Local state may be unavailable (no database); history still works
	// against the backend, just without the offline archive.
	if opts.HistoryLog == nil {
		opts.HistoryLog = history.NewLog(opts.Muse, nil, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		client:     opts.Client,
		muse:       opts.Muse,
		store:      opts.Store,
		historyLog: opts.HistoryLog,
		kv:         opts.KV,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, generateCommand, historyCommand, playlistCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// newStreamSession builds a streaming session against the backend.
func (r *Runner) newStreamSession() *tasks.StreamSession {
	return tasks.NewStreamSession(tasks.MuseOpener{Service: r.muse}, r.logger)
}

// restoreSession loads the persisted session, nil when signed out.
func (r *Runner) restoreSession(ctx context.Context) *models.Session {
	if r.store == nil {
		return nil
	}
	sess, err := r.store.Restore(ctx)
	if err != nil {
		r.logger.Warn("session restore failed", "error", err)
		return nil
	}
	return sess
}

// deviceID resolves the durable anonymous device identifier.
func (r *Runner) deviceID() string {
	if r.kv == nil {
		return ""
	}
	id, err := session.ResolveDeviceID(r.kv)
	if err != nil {
		r.logger.Warn("failed to resolve device id", "error", err)
		return ""
	}
	return id
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeTrackList prints a numbered track listing.
func (r *Runner) writeTrackList(tracks []models.Track) {
	for i, track := range tracks {
		r.writePlain("%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Duration != "" {
			r.writePlain(" [%s]", track.Duration)
		}
		if !track.Playable() {
			r.writePlain(" (unavailable)")
		}
		r.writePlain("\n")
	}
}
