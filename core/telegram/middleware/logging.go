package middleware

import (
	"log/slog"

	"github.com/roskarniz/regbot/core/logger"
	tghelpers "github.com/roskarniz/regbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerOptions tunes the update receipt log.
type LoggerOptions struct {
	// Redact reports whether the sender's text must stay out of the logs,
	// for example while a password is expected.
	Redact func(userID int64) bool
}

// NewLoggerMiddleware seeds the update's logging context and writes a
// sampled debug receipt for it.
func NewLoggerMiddleware(opts LoggerOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			ctx := tghelpers.Context(c)
			if logger.ShouldSampleDebug() {
				logger.Debug(ctx, "tg", "update.received", receipt(c, opts.Redact)...)
			}
			return next(c)
		}
	}
}

func receipt(c tele.Context, redact func(int64) bool) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	var userID int64
	if user := c.Sender(); user != nil {
		userID = user.ID
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	if msg := c.Update().Message; msg != nil {
		attrs = append(attrs, payloadAttrs(msg, redact != nil && redact(userID))...)
	}
	return attrs
}

// payloadAttrs describes the message body; redacted text is replaced by a marker.
func payloadAttrs(msg *tele.Message, redact bool) []slog.Attr {
	switch {
	case msg.Contact != nil:
		return []slog.Attr{slog.String("kind", "contact")}
	case msg.Text == "":
		return nil
	case redact:
		return []slog.Attr{slog.String("kind", "text"), slog.String("payload", "[redacted]")}
	default:
		return []slog.Attr{slog.String("kind", "text"), slog.String("payload", logger.SanitizeLimit(msg.Text, 256))}
	}
}
