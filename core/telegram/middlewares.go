package telegram

import (
	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MiddlewareOptions carries bot-specific hooks for the shared chain.
type MiddlewareOptions struct {
	OnLimited tele.HandlerFunc
	// Redact hides message text of the given user from the receipt log.
	Redact func(userID int64) bool
}

// DefaultMiddlewares builds the shared middleware chain for bots.
func DefaultMiddlewares(cfg *coreconfig.Config, opts MiddlewareOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil && cfg.RateLimit.Interval() > 0 {
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  cfg.RateLimit.Interval(),
				Exclude:   cfg.RateLimit.Excluded(),
				OnLimited: opts.OnLimited,
			}),
		})
	}

	return append(mws, Middleware{
		Name: "logger",
		Use:  middleware.NewLoggerMiddleware(middleware.LoggerOptions{Redact: opts.Redact}),
	})
}
