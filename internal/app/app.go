package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"tasklock/internal/config"
	"tasklock/internal/db"
	"tasklock/internal/engine"
	"tasklock/internal/logging"
	"tasklock/internal/migrate"
)

// Options selects the workspace and overrides config values from flags.
type Options struct {
	Workspace string
	LogLevel  string
	TimeZone  string
	LogOutput io.Writer
}

// Resolve loads tasklock.yml (defaults when absent) and applies overrides.
func Resolve(opts Options) (*config.Config, error) {
	cfg, err := config.LoadOptional(opts.Workspace)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.TimeZone != "" {
		cfg.Display.TimeZone = opts.TimeZone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithEngine opens the workspace database, migrates it and runs fn.
func WithEngine(ctx context.Context, opts Options, fn func(context.Context, engine.Engine) error) error {
	cfg, err := Resolve(opts)
	if err != nil {
		return err
	}
	log := logging.New(cfg, opts.LogOutput)
	e, closeFn, err := Open(cfg, opts.Workspace, log)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, e)
}

// Open returns a ready engine and a func releasing the database.
func Open(cfg *config.Config, workspace string, log zerolog.Logger) (engine.Engine, func() error, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return engine.Engine{}, nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("migrate %s: %w", db.Path(workspace), err)
	}
	if err := checkSchema(conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("%s: %w", db.Path(workspace), err)
	}
	log.Debug().Str("db", db.Path(workspace)).Msg("workspace opened")
	return engine.New(conn, cfg, log), conn.Close, nil
}

// checkSchema refuses a database migrated by a newer tasklock.
func checkSchema(conn *sql.DB) error {
	current, err := migrate.CurrentVersion(conn)
	if err != nil {
		return err
	}
	latest, err := migrate.Latest()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, latest)
	}
	return nil
}
