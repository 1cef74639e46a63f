// Package app wires the registration bot together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roskarniz/regbot/core/bootstrap"
	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/logger"
	coretelegram "github.com/roskarniz/regbot/core/telegram"
	"github.com/roskarniz/regbot/core/telegram/router"
	"github.com/roskarniz/regbot/core/telegram/sender"
	"github.com/roskarniz/regbot/internal/journal"
	"github.com/roskarniz/regbot/internal/onboarding"
	"github.com/roskarniz/regbot/internal/regapi"
	"github.com/roskarniz/regbot/internal/tgchannel"

	tele "gopkg.in/telebot.v4"
)

const maxPendingEvents = 1024

// App is the registration bot with its collaborators.
type App struct {
	cfg      *coreconfig.Config
	boot     *bootstrap.Result
	dialog   *onboarding.Dialog
	channel  *tgchannel.Channel
	registry *coretelegram.Registry
	handle   tele.HandlerFunc

	stopOnce  sync.Once
	stopSweep context.CancelFunc
}

// Bootstrap initializes logging and storage, then builds the App.
func Bootstrap(cfg *coreconfig.Config) (*App, error) {
	res, err := bootstrap.Run(context.Background(), bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, res)
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	return a, nil
}

// New builds the App from configuration and bootstrapped infrastructure.
// res may be nil when no database is used.
func New(cfg *coreconfig.Config, res *bootstrap.Result) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	var jr onboarding.Journal
	if res != nil && res.DB != nil {
		jr = journal.NewStore(res.DB)
	}

	channel := tgchannel.New()
	dialog, err := onboarding.New(onboarding.Options{
		Channel:    channel,
		Registrar:  regapi.NewFromConfig(cfg.Registration),
		Journal:    jr,
		IdleTTL:    cfg.Session.IdleTTL(),
		MaxPending: maxPendingEvents,
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	handle := tgchannel.DialogHandler(dialog)
	reg := coretelegram.NewRegistry()
	cmds := map[string]coretelegram.Command{
		"/start":  {Handler: handle, Description: "Начать регистрацию"},
		"/cancel": {Handler: handle, Description: "Отменить регистрацию"},
	}
	if cfg.Telegram.AdminID != 0 {
		cmds["/sessions"] = coretelegram.Command{
			Handler:     tgchannel.SessionsHandler(dialog, channel),
			Description: "Активные регистрации",
			AdminOnly:   true,
			Hidden:      true,
		}
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}

	logger.Info(context.Background(), logComponent, "app.wired",
		slog.Bool("journal", jr != nil),
		slog.Duration("idle_ttl", cfg.Session.IdleTTL()),
		slog.Int("commands", len(reg.Commands())),
	)

	return &App{
		cfg:      cfg,
		boot:     res,
		dialog:   dialog,
		channel:  channel,
		registry: reg,
		handle:   handle,
	}, nil
}

const logComponent = "app"

// Dialog exposes the registration dialogue.
func (a *App) Dialog() *onboarding.Dialog { return a.dialog }

// TelegramRunOptions describes how the Telegram runtime should host the App.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.handle,
	})
	routes = append(routes, router.MessageRoutes(a.handle)...)

	return coretelegram.RunOptions{
		Config:   a.cfg,
		Registry: a.registry,
		DispatcherOptions: sender.Options{
			QueueSize:    512,
			MaxRetries:   2,
			RetryBackoff: time.Second,
		},
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, coretelegram.MiddlewareOptions{
			Redact: a.dialog.InProgress,
		}),
		Routes:  routes,
		OnStart: a.start,
		OnStop:  a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	if rt.Bot != nil {
		a.channel.Bind(rt.Bot, rt.Dispatcher)
	}
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopSweep = cancel
	go a.dialog.RunSweeper(sweepCtx, a.cfg.Session.SweepInterval())
	return nil
}

// stop drains queued dialogue events before the runtime closes the sender.
func (a *App) stop(context.Context, coretelegram.Runtime) error {
	var err error
	a.stopOnce.Do(func() {
		if a.stopSweep != nil {
			a.stopSweep()
		}
		a.dialog.Close()
		err = a.boot.Close()
	})
	return err
}
