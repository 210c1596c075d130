package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/annotrack/auth"
	"github.com/ayoisaiah/annotrack/internal/config"
	"github.com/ayoisaiah/annotrack/internal/logger"
	"github.com/ayoisaiah/annotrack/store"
	"github.com/ayoisaiah/annotrack/tracker"
	"github.com/ayoisaiah/annotrack/upload"
)

// deps holds the components shared by the commands.
type deps struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      store.KV
	tracker *tracker.Tracker
	auth    *auth.Service
	closers []io.Closer
}

// load reads the configuration, opens the database and wires the tracker
// to the collector.
func load(ctx *cli.Context) (*deps, error) {
	cfg, err := config.New(
		config.WithViperConfig(config.ConfigFilePath()),
		config.WithCLIConfig(ctx),
	)
	if err != nil {
		return nil, err
	}

	l, logCloser := logger.New(cfg)
	slog.SetDefault(l)

	db, err := store.NewClient(cfg.System.DBPath)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	up := upload.New(
		cfg.BaseURL(),
		upload.WithPath(cfg.API.UploadPath),
		upload.WithTimeout(cfg.API.Timeout),
	)

	t := tracker.New(
		db,
		tracker.WithUploader(up),
		tracker.WithLogger(l),
		tracker.WithTickInterval(cfg.Tracking.TickInterval),
	)

	l.DebugContext(ctx.Context, "annotrack initialised",
		"config", cfg.System.ConfigPath,
		"db", cfg.System.DBPath,
		"collector", up.URL(),
	)

	return &deps{
		cfg:     cfg,
		logger:  l,
		db:      db,
		tracker: t,
		auth:    auth.New(db, t, l),
		closers: []io.Closer{db, logCloser},
	}, nil
}

// Close releases the database and the log file.
func (d *deps) Close() error {
	var errs []error

	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}

// withDeps adapts an action that needs the shared components.
func withDeps(fn func(*cli.Context, *deps) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		d, err := load(ctx)
		if err != nil {
			return err
		}

		defer d.Close()

		return fn(ctx, d)
	}
}
