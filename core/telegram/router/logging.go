package router

import (
	"log/slog"
	"strings"
	"time"

	"github.com/roskarniz/regbot/core/logger"
	tghelpers "github.com/roskarniz/regbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// handleWithSummary tags the update context with the handler name, runs fn
// and writes one debug line with its status and duration.
func handleWithSummary(c tele.Context, handlerName string, start time.Time, fn func() error) error {
	ctx := tghelpers.WithHandler(c, handlerName)
	err := fn()

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.Debug(ctx, "tg", "handler.done", attrs...)
	return err
}

// handlerName turns a command or message kind into a log-friendly name.
func handlerName(endpoint string) string {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(endpoint), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}
