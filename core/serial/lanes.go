// Package serial runs work in per-key lanes: jobs sharing a key execute one
// at a time in submission order, jobs with different keys run concurrently.
// A lane owns a goroutine only while it has queued work.
package serial

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/roskarniz/regbot/core/logger"
)

var (
	// ErrClosed is returned by Submit after Close has been called.
	ErrClosed = errors.New("serial: lanes closed")
	// ErrFull is returned when the global pending limit is reached.
	ErrFull = errors.New("serial: too many pending jobs")
)

// Lanes is a keyed serial executor. The zero value is not usable; use New.
type Lanes struct {
	mu         sync.Mutex
	lanes      map[int64]*lane
	pending    int
	maxPending int
	closed     bool
	wg         sync.WaitGroup
}

type lane struct {
	queue []func()
}

// New creates Lanes that accept at most maxPending queued jobs in total.
// maxPending <= 0 means unbounded.
func New(maxPending int) *Lanes {
	return &Lanes{
		lanes:      make(map[int64]*lane),
		maxPending: maxPending,
	}
}

// Submit queues fn on the lane for key.
func (l *Lanes) Submit(key int64, fn func()) error {
	if fn == nil {
		return errors.New("serial: nil job")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.maxPending > 0 && l.pending >= l.maxPending {
		return ErrFull
	}
	l.pending++
	ln, running := l.lanes[key]
	if !running {
		ln = &lane{}
		l.lanes[key] = ln
	}
	ln.queue = append(ln.queue, fn)
	if !running {
		l.wg.Add(1)
		go l.drain(key, ln)
	}
	return nil
}

func (l *Lanes) drain(key int64, ln *lane) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		if len(ln.queue) == 0 {
			delete(l.lanes, key)
			l.mu.Unlock()
			return
		}
		fn := ln.queue[0]
		ln.queue[0] = nil
		ln.queue = ln.queue[1:]
		l.mu.Unlock()

		run(key, fn)

		l.mu.Lock()
		l.pending--
		l.mu.Unlock()
	}
}

// run isolates a panicking job so the lane keeps draining.
func run(key int64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(context.Background(), "serial", "lane.panic",
				slog.Int64("key", key),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}

// Active returns the number of lanes currently holding work.
func (l *Lanes) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}

// Close rejects new jobs and waits for queued ones to finish.
func (l *Lanes) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}
