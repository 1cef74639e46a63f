package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/logger"
	"github.com/roskarniz/regbot/core/netutil"
	tghelpers "github.com/roskarniz/regbot/core/telegram/helpers"
	tgsender "github.com/roskarniz/regbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to a telebot endpoint (a command or an On* constant).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	// Dispatcher overrides the one built from DispatcherOptions.
	Dispatcher *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook skips removing a stale webhook before long polling.
	KeepWebhook bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to work with.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, serves updates until ctx is done and then
// runs OnStop before the outbound dispatcher is drained. Updates reach the
// routes one at a time, so handlers must hand slow work off.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	cfg := opts.Config
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	started := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:       cfg.Telegram.Token,
		Poller:      NewPoller(cfg.Telegram, cfg.Webhook),
		Synchronous: true,
		Client:      netutil.NewHTTPClient(netutil.TelegramClientOptions()),
		OnError:     onBotError(cfg.Telegram.Token),
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %s", redactToken(err, cfg.Telegram.Token))
	}

	disp := opts.Dispatcher
	if disp == nil {
		disp = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(disp)
	defer func() {
		disp.Close()
		tghelpers.SetDispatcher(nil)
	}()

	logMode(ctx, cfg, time.Since(started))
	if cfg.Telegram.RunMode == coreconfig.RunModeLongpoll && !opts.KeepWebhook {
		removeWebhook(ctx, bot, cfg.Telegram.Token)
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, opts.Registry)

	rt := Runtime{Bot: bot, Dispatcher: disp, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	serve(ctx, bot)

	if opts.OnStop != nil {
		return opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	return nil
}

// serve polls until ctx is cancelled or the poller gives up.
func serve(ctx context.Context, bot *tele.Bot) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
	case <-done:
	}
}

func onBotError(token string) func(error, tele.Context) {
	return func(err error, c tele.Context) {
		attrs := []slog.Attr{
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(redactToken(err, token), 256)),
		}
		if c != nil {
			attrs = append(attrs, slog.Int("update_id", c.Update().ID))
		}
		logger.Error(context.Background(), "tg", "bot.error", attrs...)
	}
}

func logMode(ctx context.Context, cfg *coreconfig.Config, took time.Duration) {
	attrs := []slog.Attr{
		slog.String("mode", cfg.Telegram.RunMode),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		attrs = append(attrs,
			slog.String("listen", fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port)),
			slog.String("public_url", cfg.Webhook.URL),
		)
	} else {
		attrs = append(attrs, slog.Duration("poll_timeout", longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)))
	}
	logger.Info(ctx, "tg", "bot.mode", attrs...)
}

// removeWebhook clears a webhook left by an earlier deployment; Telegram
// refuses getUpdates while one is set.
func removeWebhook(ctx context.Context, bot *tele.Bot, token string) {
	if err := bot.RemoveWebhook(); err != nil {
		logger.Warn(ctx, "tg", "webhook.remove",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(redactToken(err, token), 256)),
		)
		return
	}
	logger.Info(ctx, "tg", "webhook.remove", slog.String("status", "ok"))
}

// redactToken renders err with the bot token masked; transport errors quote request URLs.
func redactToken(err error, token string) string {
	msg := err.Error()
	if token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, token, "<token>")
}
