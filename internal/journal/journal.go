// Package journal records registration attempts in Postgres.
// Passwords never reach this package.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/roskarniz/regbot/core/logger"
)

const insertAttempt = `
INSERT INTO registration_attempts (telegram_id, phone, outcome, http_status, request_id, duration_ms)
VALUES (:telegram_id, :phone, :outcome, :http_status, :request_id, :duration_ms)`

// Attempt describes one finished registration call.
type Attempt struct {
	TelegramID int64
	Phone      string
	Outcome    string
	// HTTPStatus of 0 means no response was received.
	HTTPStatus int
	RequestID  string
	Duration   time.Duration
}

type attemptRow struct {
	TelegramID int64         `db:"telegram_id"`
	Phone      string        `db:"phone"`
	Outcome    string        `db:"outcome"`
	HTTPStatus sql.NullInt32 `db:"http_status"`
	RequestID  string        `db:"request_id"`
	DurationMS int64         `db:"duration_ms"`
}

func toRow(a Attempt) attemptRow {
	return attemptRow{
		TelegramID: a.TelegramID,
		Phone:      a.Phone,
		Outcome:    a.Outcome,
		HTTPStatus: sql.NullInt32{Int32: int32(a.HTTPStatus), Valid: a.HTTPStatus != 0},
		RequestID:  a.RequestID,
		DurationMS: a.Duration.Milliseconds(),
	}
}

type namedExecer interface {
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

// Store writes attempts through sqlx.
type Store struct {
	db namedExecer
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Record inserts one attempt row.
func (s *Store) Record(ctx context.Context, a Attempt) error {
	start := time.Now()
	if _, err := s.db.NamedExecContext(ctx, insertAttempt, toRow(a)); err != nil {
		logger.Error(ctx, "journal", "journal.insert",
			slog.String("status", "fail"),
			slog.String("request_id", a.RequestID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("journal: insert attempt: %w", err)
	}
	logger.Debug(ctx, "journal", "journal.insert",
		slog.String("status", "ok"),
		slog.String("request_id", a.RequestID),
		slog.String("result", a.Outcome),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
