// Package throttle provides a per-key attempt limiter with an explicit
// lifetime: it is injected where needed and its sweep goroutine is bounded by
// a cancellable context, never ambient package state.
package throttle

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter allows at most max attempts per key within a fixed window.
type Limiter struct {
	max        int
	windowSize time.Duration
	now        func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewLimiter creates a limiter allowing max attempts per windowSize.
func NewLimiter(max int, windowSize time.Duration) *Limiter {
	return &Limiter{
		max:        max,
		windowSize: windowSize,
		now:        time.Now,
		windows:    make(map[string]*window),
	}
}

// Allow records an attempt for the key and reports whether it is within the
// limit.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.windowSize {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.max
}

// Run sweeps expired windows until the context is cancelled.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.windowSize)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	cutoff := l.now().Add(-l.windowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, key)
		}
	}
}
