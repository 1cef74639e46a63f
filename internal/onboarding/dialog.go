package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roskarniz/regbot/core/logger"
	"github.com/roskarniz/regbot/core/serial"
	"github.com/roskarniz/regbot/core/telegram/state"
	"github.com/roskarniz/regbot/internal/journal"
	"github.com/roskarniz/regbot/internal/regapi"
)

const logComponent = "onboarding"

// ErrBusy is returned by Submit when too many events are queued.
var ErrBusy = errors.New("onboarding: too many pending events")

// Channel delivers the dialog's output to the user.
type Channel interface {
	Send(ctx context.Context, chatID int64, text string, aff Affordance) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Registrar performs the registration call.
type Registrar interface {
	Register(ctx context.Context, req regapi.Request) (regapi.Outcome, error)
}

// Journal records finished registration attempts.
type Journal interface {
	Record(ctx context.Context, a journal.Attempt) error
}

// Options wires a Dialog.
type Options struct {
	Channel   Channel
	Registrar Registrar
	// Journal is optional.
	Journal Journal
	// IdleTTL of 0 keeps sessions until they finish.
	IdleTTL time.Duration
	// MaxPending bounds events queued across all users; 0 is unbounded.
	MaxPending int
	// Now overrides the clock used for idle eviction.
	Now func() time.Time
}

// Dialog owns every user's session and applies events to them. Events of one
// user are applied in submission order; different users proceed independently.
type Dialog struct {
	ch       Channel
	reg      Registrar
	journal  Journal
	sessions *state.Store[Session]
	lanes    *serial.Lanes
}

// New builds a Dialog.
func New(opts Options) (*Dialog, error) {
	if opts.Channel == nil {
		return nil, fmt.Errorf("onboarding: channel is required")
	}
	if opts.Registrar == nil {
		return nil, fmt.Errorf("onboarding: registrar is required")
	}
	var storeOpts []state.Option
	if opts.Now != nil {
		storeOpts = append(storeOpts, state.WithClock(opts.Now))
	}
	return &Dialog{
		ch:       opts.Channel,
		reg:      opts.Registrar,
		journal:  opts.Journal,
		sessions: state.NewStore[Session](opts.IdleTTL, storeOpts...),
		lanes:    serial.New(opts.MaxPending),
	}, nil
}

// Submit queues ev behind earlier events of the same user and returns at once.
func (d *Dialog) Submit(ctx context.Context, ev Event) error {
	err := d.lanes.Submit(ev.UserID, func() { d.Apply(ctx, ev) })
	if errors.Is(err, serial.ErrFull) {
		return ErrBusy
	}
	return err
}

// Apply runs one event to completion, registration call included.
// Callers must not apply events of the same user concurrently.
func (d *Dialog) Apply(ctx context.Context, ev Event) {
	var cur *Session
	if s, ok := d.sessions.Get(ev.UserID); ok {
		cur = &s
	}

	next, effects := Transition(cur, ev)
	if next == nil {
		d.sessions.Delete(ev.UserID)
	} else {
		d.sessions.Put(ev.UserID, *next)
	}

	logger.Debug(ctx, logComponent, "dialog.transition",
		slog.String("state", stateOf(cur).String()),
		slog.String("next_state", stateOf(next).String()),
		slog.String("trigger", ev.Kind.String()),
		slog.Int("effects", len(effects)),
	)

	for _, eff := range effects {
		d.execute(ctx, eff)
	}
}

func (d *Dialog) execute(ctx context.Context, eff Effect) {
	switch e := eff.(type) {
	case Reply:
		d.reply(ctx, e.ChatID, e.Text, e.Affordance)
	case DeleteMessage:
		if err := d.ch.Delete(ctx, e.ChatID, e.MessageID); err != nil {
			logger.Warn(ctx, logComponent, "dialog.delete_failed",
				slog.Int("message_id", e.MessageID),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	case Register:
		d.register(ctx, e)
	}
}

func (d *Dialog) reply(ctx context.Context, chatID int64, text string, aff Affordance) {
	if err := d.ch.Send(ctx, chatID, text, aff); err != nil {
		logger.Error(ctx, logComponent, "dialog.reply_failed",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

func (d *Dialog) register(ctx context.Context, e Register) {
	start := time.Now()
	out, err := d.reg.Register(ctx, e.Request)
	took := time.Since(start)
	if err != nil {
		out.Kind = regapi.TransportFailure
	}

	logger.Info(ctx, logComponent, "dialog.registered",
		slog.String("status", logger.Status(err)),
		slog.String("result", out.Kind.String()),
		slog.Int("http_code", out.Status),
		slog.String("request_id", out.RequestID),
		slog.Duration("duration", logger.RoundMS(took)),
	)

	d.reply(ctx, e.ChatID, OutcomeText(out, e.Request.Phone), AffordanceNone)

	if d.journal == nil {
		return
	}
	attempt := journal.Attempt{
		TelegramID: e.Request.TelegramID,
		Phone:      e.Request.Phone,
		Outcome:    out.Kind.String(),
		HTTPStatus: out.Status,
		RequestID:  out.RequestID,
		Duration:   took,
	}
	if err := d.journal.Record(ctx, attempt); err != nil {
		logger.Warn(ctx, logComponent, "dialog.journal_failed",
			slog.String("request_id", out.RequestID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

// Session returns a copy of the user's live session.
func (d *Dialog) Session(userID int64) (Session, bool) {
	return d.sessions.Get(userID)
}

// InProgress reports whether the user has an active session. Text of such
// users may be a password and is kept out of receipt logs.
func (d *Dialog) InProgress(userID int64) bool {
	_, ok := d.sessions.Get(userID)
	return ok
}

// ActiveSessions returns how many sessions are held, counting expired ones not yet swept.
func (d *Dialog) ActiveSessions() int {
	return d.sessions.Len()
}

// RunSweeper evicts idle sessions every interval until ctx is done.
func (d *Dialog) RunSweeper(ctx context.Context, interval time.Duration) {
	d.sessions.RunSweeper(ctx, interval)
}

// Close stops accepting events and waits for queued ones to finish.
func (d *Dialog) Close() {
	d.lanes.Close()
}
