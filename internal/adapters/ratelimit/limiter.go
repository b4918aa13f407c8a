// Package ratelimit gates kit requests by client identity before any
// acquisition or selection work begins. The limiter is a sliding window
// over an injectable expiring counter store, so a shared store keeps it
// correct across horizontally scaled replicas and tests can drive it with
// a fake clock instead of wall-clock waits.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Default limiter configuration.
const (
	defaultLimit  = 10
	defaultWindow = time.Minute
)

// CounterStore is the expiring per-key hit counter behind the limiter.
// Implementations must be safe for concurrent use.
type CounterStore interface {
	// Allow atomically prunes hits older than now-window for key, records
	// a hit at now when fewer than limit remain, and reports whether the
	// hit was admitted along with the oldest hit still inside the window.
	Allow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (ok bool, oldest time.Time, err error)
}

// Limiter applies a fixed request cap per key over a sliding window.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithLimit sets the request cap per window.
func WithLimit(limit int) Option {
	return func(l *Limiter) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithWindow sets the sliding window length.
func WithWindow(window time.Duration) Option {
	return func(l *Limiter) {
		if window > 0 {
			l.window = window
		}
	}
}

// WithClock injects the time source, letting tests advance time directly.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter over the given store with configuration options.
func New(store CounterStore, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		limit:  defaultLimit,
		window: defaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether a request for key may proceed. When the cap is
// exhausted it returns the duration after which the oldest in-window hit
// expires, suitable for a Retry-After hint.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	ok, oldest, err := l.store.Allow(ctx, key, now, l.window, l.limit)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check for %q: %w", key, err)
	}
	if ok {
		return true, 0, nil
	}
	retryAfter := oldest.Add(l.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter, nil
}
