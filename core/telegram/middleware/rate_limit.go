package middleware

import (
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/logger"
	tghelpers "github.com/roskarniz/regbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures the per-user throttle.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude holds UpdateKind values that are never throttled.
	Exclude map[string]struct{}
	// OnLimited answers a dropped update; nil drops it silently.
	OnLimited tele.HandlerFunc
}

// UpdateKind classifies an update for rate limit exclusions: "contact", "message" or "other".
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Message == nil:
		return "other"
	case upd.Message.Contact != nil:
		return coreconfig.UpdateContact
	default:
		return coreconfig.UpdateMessage
	}
}

// throttle remembers when each user was last let through.
type throttle struct {
	interval time.Duration

	mu        sync.Mutex
	last      map[int64]time.Time
	lastPrune time.Time
}

// allow records now for userID unless the previous update came within the interval.
func (t *throttle) allow(userID int64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastPrune) > t.interval {
		for id, at := range t.last {
			if now.Sub(at) >= t.interval {
				delete(t.last, id)
			}
		}
		t.lastPrune = now
	}
	if at, ok := t.last[userID]; ok && now.Sub(at) < t.interval {
		return false
	}
	t.last[userID] = now
	return true
}

// RateLimitMiddleware drops updates that follow the same user's previous
// update by less than opts.Interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	t := &throttle{interval: opts.Interval, last: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip || t.allow(user.ID, time.Now()) {
				return next(c)
			}
			logger.Warn(tghelpers.Context(c), "tg", "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
