// Package database owns the optional Postgres pool behind the registration journal.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/logger"
)

const (
	readyTimeout  = 30 * time.Second
	readyInterval = 2 * time.Second
	pingTimeout   = 5 * time.Second
)

// DSN renders a libpq keyword/value connection string.
func DSN(cfg coreconfig.DatabaseConfig) string {
	pairs := []struct{ k, v string }{
		{"user", cfg.User},
		{"password", cfg.Password},
		{"host", cfg.Host},
		{"port", cfg.Port},
		{"dbname", cfg.Name},
		{"sslmode", cfg.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.k+"="+quoteValue(p.v))
	}
	return strings.Join(parts, " ")
}

// quoteValue applies libpq quoting when v is empty or has spaces, quotes or backslashes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// Connect waits for Postgres to accept connections, then sizes the pool.
func Connect(ctx context.Context, cfg coreconfig.DatabaseConfig) (*sqlx.DB, error) {
	attrs := []slog.Attr{
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}
	start := time.Now()

	db, attempts, err := dialUntilReady(ctx, DSN(cfg), readyTimeout)
	attrs = append(attrs, slog.Int("attempts", attempts), slog.Duration("duration", logger.Took(start)))
	if err != nil {
		logger.Error(ctx, "db", "db.connect", append(attrs,
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.Info(ctx, "db", "db.connect", append(attrs,
		slog.String("status", "ok"),
		slog.Int("pool_open", cfg.MaxConnections),
	)...)
	return db, nil
}

// dialUntilReady retries sqlx.ConnectContext every readyInterval until it
// succeeds, ctx ends or timeout elapses. A container that is still starting
// refuses connections for a while.
func dialUntilReady(ctx context.Context, dsn string, timeout time.Duration) (*sqlx.DB, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		pingCtx, stop := context.WithTimeout(ctx, pingTimeout)
		db, err := sqlx.ConnectContext(pingCtx, "postgres", dsn)
		stop()
		if err == nil {
			return db, attempt, nil
		}
		select {
		case <-ctx.Done():
			return nil, attempt, fmt.Errorf("database not ready after %d attempts: %w", attempt, err)
		case <-ticker.C:
		}
	}
}
