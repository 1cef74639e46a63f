package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/logger"
)

// Migrate applies pending up migrations from cfg.MigrationsDir over one
// connection borrowed from db. The pool stays open afterwards.
func Migrate(ctx context.Context, db *sqlx.DB, cfg coreconfig.DatabaseConfig) error {
	dir, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	files := upFiles(dir)
	logger.Debug(ctx, "migrate", "migrate.resolve",
		slog.String("path", dir),
		slog.Int("files_total", len(files)),
	)

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrations: acquire connection: %w", err)
	}
	drv, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migrations: driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", drv)
	if err != nil {
		_ = drv.Close()
		return fmt.Errorf("migrations: init: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := logger.Took(start)

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, "migrate", "migrate.apply",
			slog.String("status", "fail"),
			slog.Uint64("from_ver", uint64(from)),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", took),
		)
		return fmt.Errorf("migrations: apply: %w", upErr)
	}

	to, _, _ := m.Version()
	applied := appliedBetween(files, uint64(from), uint64(to))
	logger.Info(ctx, "migrate", "migrate.apply",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.String("applied", strings.Join(applied, ",")),
		slog.Duration("duration", took),
	)
	return nil
}

// upFiles lists *.up.sql names in dir in lexical order; nil when dir is unreadable.
func upFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

func fileVersion(name string) uint64 {
	digits, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(digits, 10, 64)
	return v
}

// appliedBetween returns the files with versions in (from, to].
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := fileVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
