package middleware

import (
	"log/slog"

	"github.com/roskarniz/regbot/core/logger"
	tghelpers "github.com/roskarniz/regbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions names the admin. AdminID 0 lets everyone through.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware passes only updates sent by opts.AdminID.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.AdminID == 0 {
				return next(c)
			}
			if sender := c.Sender(); sender != nil && sender.ID == opts.AdminID {
				return next(c)
			}
			logger.Info(tghelpers.Context(c), "tg", "admin.reject", slog.String("status", "denied"))
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
