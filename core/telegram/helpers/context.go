// Package helpers carries per-update state between middleware and handlers.
package helpers

import (
	"context"

	"github.com/roskarniz/regbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// ctxKey is the tele.Context slot holding the update's logging context.
const ctxKey = "log_ctx"

// Context returns the logging context of the update in c, deriving it on
// first use from the update, chat and sender ids.
func Context(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(ctxKey, ctx)
	return ctx
}

// WithHandler tags the update's context with the handler that serves it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := Context(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(ctxKey, ctx)
	return ctx
}
