package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roskarniz/regbot/core/logger"
)

type entry[T any] struct {
	value   T
	touched time.Time
}

// Store holds at most one session per user id.
type Store[T any] struct {
	mu       sync.Mutex
	sessions map[int64]*entry[T]
	idleTTL  time.Duration
	now      func() time.Time
}

// Option customises a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewStore creates an empty store. idleTTL <= 0 disables eviction.
func NewStore[T any](idleTTL time.Duration, opts ...Option) *Store[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		sessions: make(map[int64]*entry[T]),
		idleTTL:  idleTTL,
		now:      o.now,
	}
}

// Get returns the live session for userID. Expired sessions are dropped and reported as absent.
func (s *Store[T]) Get(userID int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	e, ok := s.sessions[userID]
	if !ok {
		return zero, false
	}
	if s.expired(e, s.now()) {
		delete(s.sessions, userID)
		return zero, false
	}
	return e.value, true
}

// Put stores value as the session of userID, replacing any previous one.
func (s *Store[T]) Put(userID int64, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &entry[T]{value: value, touched: s.now()}
}

// Delete removes the session of userID.
func (s *Store[T]) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of stored sessions, including ones not yet swept.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops every expired session and returns how many were removed.
func (s *Store[T]) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store[T]) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Info(ctx, "tg", "session.evicted",
					slog.Int("count", n),
					slog.Int("sessions", s.Len()),
					slog.Duration("idle_ttl", s.idleTTL),
				)
			}
		}
	}
}

func (s *Store[T]) expired(e *entry[T], now time.Time) bool {
	return s.idleTTL > 0 && now.Sub(e.touched) >= s.idleTTL
}
