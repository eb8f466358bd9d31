// Package ratelimit implements a fixed-window per-client request limiter.
// The limiter is an injected component with its own lifecycle: constructed
// once per server process and passed into request handlers, never a hidden
// module-level singleton, so tests can build and reset their own instance.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter counts requests per client key within a trailing window.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*entry

	now func() time.Time // injectable clock for tests
}

type entry struct {
	windowStart time.Time
	count       int
}

// New creates a limiter allowing max requests per window per client key.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow records a request for the client key and reports whether it is within
// quota. An expired window resets the count to 1. Allow never errors — a
// denial is a plain false.
func (l *Limiter) Allow(clientKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[clientKey]
	if !ok || now.Sub(e.windowStart) >= l.window {
		l.entries[clientKey] = &entry{windowStart: now, count: 1}
		return true
	}

	e.count++
	return e.count <= l.max
}

// Purge removes entries whose window has expired and returns how many were
// dropped. Called lazily by the cleanup loop to bound memory.
func (l *Limiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	dropped := 0
	for key, e := range l.entries {
		if now.Sub(e.windowStart) >= l.window {
			delete(l.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of tracked client keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartCleanup purges expired entries every interval until ctx is cancelled.
// This is the only long-lived background task the limiter owns.
func (l *Limiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Purge()
			}
		}
	}()
}
