package tgchannel

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/roskarniz/regbot/core/telegram/keyboard"
	"github.com/roskarniz/regbot/core/telegram/sender"
	"github.com/roskarniz/regbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

// ErrNotBound is returned when the channel is used before Bind.
var ErrNotBound = errors.New("tgchannel: bot not bound")

// BotAPI is the part of *tele.Bot the channel needs.
type BotAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// Channel implements onboarding.Channel on top of a Telegram bot. Outbound
// calls go through the dispatcher keyed by chat, so one chat never sees
// replies out of order.
type Channel struct {
	mu   sync.RWMutex
	bot  BotAPI
	disp *sender.Dispatcher
}

// New returns an unbound channel; call Bind once the bot exists.
func New() *Channel {
	return &Channel{}
}

// Bind attaches the bot and, optionally, the outbound dispatcher.
func (c *Channel) Bind(bot BotAPI, disp *sender.Dispatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bot = bot
	c.disp = disp
}

func (c *Channel) current() (BotAPI, *sender.Dispatcher) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bot, c.disp
}

// Send delivers text to chatID with the requested keyboard change.
func (c *Channel) Send(ctx context.Context, chatID int64, text string, aff onboarding.Affordance) error {
	bot, disp := c.current()
	if bot == nil {
		return ErrNotBound
	}
	var opts []interface{}
	if markup := markupFor(aff); markup != nil {
		opts = append(opts, &tele.SendOptions{ReplyMarkup: markup})
	}
	run := func() error {
		_, err := bot.Send(tele.ChatID(chatID), text, opts...)
		return err
	}
	return dispatch(ctx, disp, chatID, "send.text", "sendMessage", run)
}

// Delete removes a message. With a dispatcher the call is asynchronous and
// its failures are only logged.
func (c *Channel) Delete(ctx context.Context, chatID int64, messageID int) error {
	bot, disp := c.current()
	if bot == nil {
		return ErrNotBound
	}
	msg := &tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	run := func() error { return bot.Delete(msg) }
	return dispatch(ctx, disp, chatID, "delete.message", "deleteMessage", run)
}

// Stats reports outbound delivery counters; zero until a dispatcher is bound.
func (c *Channel) Stats() sender.Stats {
	if _, disp := c.current(); disp != nil {
		return disp.Stats()
	}
	return sender.Stats{}
}

func dispatch(ctx context.Context, disp *sender.Dispatcher, chatID int64, action, endpoint string, run func() error) error {
	if disp == nil {
		return run()
	}
	err := disp.Enqueue(ctx, chatID, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) {
		return run()
	}
	return err
}

func markupFor(aff onboarding.Affordance) *tele.ReplyMarkup {
	switch aff {
	case onboarding.AffordanceContactRequest:
		return keyboard.ContactRequest(onboarding.ContactButtonLabel)
	case onboarding.AffordanceRemove:
		return keyboard.RemoveKeyboard()
	default:
		return nil
	}
}
