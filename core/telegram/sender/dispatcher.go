// Package sender delivers outbound Telegram calls off the update loop.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roskarniz/regbot/core/logger"
	"github.com/roskarniz/regbot/core/serial"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when QueueSize jobs are already waiting.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize bounds jobs waiting across all chats.
	QueueSize  int
	MaxRetries int
	// RetryBackoff grows linearly with the attempt number.
	RetryBackoff time.Duration
	// MaxDuration bounds one job including its retries.
	MaxDuration time.Duration
}

// Stats counts finished jobs since the dispatcher started.
type Stats struct {
	Sent    uint64
	Failed  uint64
	Retried uint64
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher runs outbound calls in per-chat order with bounded retries.
type Dispatcher struct {
	opts      Options
	lanes     *serial.Lanes
	closeOnce sync.Once

	sent    atomic.Uint64
	failed  atomic.Uint64
	retried atomic.Uint64
}

// NewDispatcher fills zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	opts.MaxRetries = max(opts.MaxRetries, 0)
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}
	return &Dispatcher{opts: opts, lanes: serial.New(opts.QueueSize)}
}

// Enqueue schedules run behind earlier jobs of the same key (a chat id).
// run may be called more than once.
func (d *Dispatcher) Enqueue(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	j := job{ctx: ctx, action: action, endpoint: endpoint, run: run}
	switch err := d.lanes.Submit(key, func() { d.deliver(j) }); {
	case errors.Is(err, serial.ErrClosed):
		return ErrQueueClosed
	case errors.Is(err, serial.ErrFull):
		return ErrQueueFull
	default:
		return err
	}
}

// Stats returns a snapshot of the delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{Sent: d.sent.Load(), Failed: d.failed.Load(), Retried: d.retried.Load()}
}

// Close stops accepting jobs and waits for queued ones.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(d.lanes.Close)
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts, err := d.attempt(ctx, j)
	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.String("endpoint", j.endpoint),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		d.failed.Add(1)
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", redactToken(err.Error())),
			slog.String("error_kind", classifyError(err)),
		)
		logger.Error(j.ctx, "tg.sender", "send.fail", attrs...)
		return
	}
	d.sent.Add(1)
	logger.Debug(j.ctx, "tg.sender", "send.ok", attrs...)
}

// attempt calls j.run until it succeeds, fails permanently, runs out of
// retries or ctx expires. It returns the number of calls made.
func (d *Dispatcher) attempt(ctx context.Context, j job) (int, error) {
	for n := 1; ; n++ {
		err := j.run()
		if err == nil {
			return n, nil
		}
		delay, retryable := retryDelay(err, d.opts.RetryBackoff, n)
		if !retryable || n > d.opts.MaxRetries {
			return n, err
		}
		d.retried.Add(1)
		logger.Debug(j.ctx, "tg.sender", "send.retry",
			slog.String("action", j.action),
			slog.Int("attempts", n),
			slog.Duration("backoff", delay),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return n, fmt.Errorf("%w; last error: %v", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
