package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/roskarniz/regbot/core/logger"
	tg "github.com/roskarniz/regbot/core/telegram"
	"github.com/roskarniz/regbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions applies to every admin-only command.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command and alias. Each
// handler is timed and guarded against panics; admin-only commands are gated.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, cmd := range cmds {
		h := wrapHandler(handlerName(name), cmd.Handler)
		if cmd.AdminOnly {
			h = gate(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range cmd.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + strings.TrimPrefix(alias, "/"), Handler: h})
		}
	}

	logger.Info(context.Background(), "tg.wire", "routes.commands",
		slog.Int("commands", len(cmds)),
		slog.Int("routes", len(routes)),
	)
	return routes
}

func wrapHandler(name string, inner tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(func(c tele.Context) error {
		return handleWithSummary(c, name, time.Now(), func() error { return inner(c) })
	})
}
