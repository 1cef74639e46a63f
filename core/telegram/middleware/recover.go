package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/roskarniz/regbot/core/logger"
	tghelpers "github.com/roskarniz/regbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into a logged, dropped update.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(tghelpers.Context(c), "tg", "handler.panic",
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = nil
		}()
		return next(c)
	}
}
