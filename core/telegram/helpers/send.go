package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roskarniz/regbot/core/logger"
	"github.com/roskarniz/regbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var outbound atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes SendText through d. With nil, sends happen inline.
func SetDispatcher(d *sender.Dispatcher) {
	outbound.Store(d)
}

// SendText sends plain text to the chat of c. A saturated or closed
// dispatcher queue falls back to an inline send.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	send := func() error {
		if len(opts) > 0 && opts[0] != nil {
			return c.Send(text, opts[0])
		}
		return c.Send(text)
	}
	disp, chat := outbound.Load(), c.Chat()
	if disp == nil || chat == nil {
		return send()
	}
	ctx := Context(c)
	err := disp.Enqueue(ctx, chat.ID, "send.text", "sendMessage", send)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.bypass", slog.String("err", err.Error()))
		return send()
	}
	return err
}
