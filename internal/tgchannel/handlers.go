package tgchannel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roskarniz/regbot/core/logger"
	tghelpers "github.com/roskarniz/regbot/core/telegram/helpers"
	"github.com/roskarniz/regbot/core/telegram/sender"
	"github.com/roskarniz/regbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

// Submitter accepts dialogue events for asynchronous processing.
type Submitter interface {
	Submit(ctx context.Context, ev onboarding.Event) error
}

// DialogHandler turns every routed update into a dialogue event. It only
// queues the event, so the update loop is never held by a slow user.
func DialogHandler(d Submitter) tele.HandlerFunc {
	return func(c tele.Context) error {
		ev, ok := EventFromUpdate(c.Update())
		if !ok {
			return nil
		}
		ctx := tghelpers.Context(c)
		if err := d.Submit(ctx, ev); err != nil {
			logger.Warn(ctx, "onboarding", "dialog.submit_failed",
				slog.String("status", "fail"),
				slog.String("trigger", ev.Kind.String()),
				slog.String("err", err.Error()),
			)
		}
		return nil
	}
}

// SessionCounter reports how many dialogues are open.
type SessionCounter interface {
	ActiveSessions() int
}

// DeliveryStats reports outbound message counters.
type DeliveryStats interface {
	Stats() sender.Stats
}

// SessionsHandler answers the admin diagnostics command.
func SessionsHandler(sc SessionCounter, ds DeliveryStats) tele.HandlerFunc {
	return func(c tele.Context) error {
		st := ds.Stats()
		return tghelpers.SendText(c, fmt.Sprintf(
			"Активных регистраций: %d\nСообщений отправлено: %d, ошибок: %d, повторов: %d",
			sc.ActiveSessions(), st.Sent, st.Failed, st.Retried,
		))
	}
}
