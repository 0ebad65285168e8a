package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/muse/internal/history"
	"github.com/desertthunder/muse/internal/repositories"
	"github.com/desertthunder/muse/internal/services"
	"github.com/desertthunder/muse/internal/session"
	"github.com/desertthunder/muse/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	client := services.NewClient(services.ClientOpts{
		BaseURL:           config.API.BaseURL,
		TimeoutSeconds:    config.API.TimeoutSeconds,
		RequestsPerSecond: config.API.RequestsPerSecond,
		BurstSize:         config.API.BurstSize,
	})
	muse := services.NewMuseService(client)

	opts := RunnerOpts{
		Config: config,
		Client: client,
		Muse:   muse,
		Logger: logger,
	}

	// Local state is best-effort at startup: commands that need the
	// database surface their own errors, and `muse setup database`
	// repairs a missing one.
	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("migrations failed, local state unavailable", "error", err)
		} else {
			kv := repositories.NewStateRepository(db)
			archive := repositories.NewArchiveRepository(db)
			opts.DB = db
			opts.KV = kv
			opts.Store = session.NewStore(kv, muse)
			opts.HistoryLog = history.NewLog(muse, archive, logger)
		}
	} else {
		logger.Warn("failed to open database", "error", err)
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "muse",
		Usage:    "Turn a mood into a playable playlist",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
