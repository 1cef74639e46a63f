// Package bootstrap brings up the process-wide infrastructure: logging first,
// then the optional database.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/roskarniz/regbot/core/config"
	coredatabase "github.com/roskarniz/regbot/core/database"
	"github.com/roskarniz/regbot/core/logger"
)

// Options carries the pipeline steps. Nil steps use the package defaults.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, *sqlx.DB, coreconfig.DatabaseConfig) error
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.Init
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.Migrate
	}
}

// Result holds what the pipeline brought up.
type Result struct {
	// DB is nil when the database is disabled.
	DB *sqlx.DB
}

// Close releases the pool, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes logging and, when enabled, connects and migrates the database.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.defaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	dbCfg := opts.Config.Database
	if !dbCfg.Enabled {
		logger.Info(ctx, "db", "db.skip", slog.String("reason", "disabled"))
		return &Result{}, nil
	}

	db, err := opts.Connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if err := opts.Migrate(ctx, db, dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return &Result{DB: db}, nil
}
