// Package ratelimit provides fixed-window request counting per client identity.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// entry tracks one identity's count within its current window.
type entry struct {
	count         int
	windowResetAt time.Time
}

// Limiter admits or rejects requests using fixed-window counting.
// The read-modify-write on an entry is guarded by the table mutex, so two
// concurrent requests from one identity can never both slip past the limit.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	limit  int
	window time.Duration

	stop chan struct{}
	once sync.Once

	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Limiter admitting at most limit requests per identity per
// window. A janitor goroutine sweeps long-expired entries so the table does
// not grow unboundedly with distinct identities.
func New(limit int, window time.Duration, logger *zap.Logger) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		limit:   limit,
		window:  window,
		stop:    make(chan struct{}),
		logger:  logger.Named("ratelimit"),
		now:     time.Now,
	}
	go l.janitor()
	return l
}

// Admit reports whether a request from identity is within its budget.
// The first request in a window (or ever) resets the entry.
func (l *Limiter) Admit(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[identity]
	if !ok || now.After(e.windowResetAt) {
		l.entries[identity] = &entry{count: 1, windowResetAt: now.Add(l.window)}
		return true
	}

	if e.count >= l.limit {
		return false
	}

	e.count++
	return true
}

// Stop terminates the janitor goroutine.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// janitor periodically deletes entries whose window expired more than one
// full window ago. Sweeping never changes admit/reject outcomes: an expired
// entry and a missing entry behave identically in Admit.
func (l *Limiter) janitor() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := l.now().Add(-l.window)
			l.mu.Lock()
			before := len(l.entries)
			for k, e := range l.entries {
				if e.windowResetAt.Before(cutoff) {
					delete(l.entries, k)
				}
			}
			swept := before - len(l.entries)
			l.mu.Unlock()
			if swept > 0 {
				l.logger.Debug("swept expired rate-limit entries", zap.Int("swept", swept))
			}
		}
	}
}

// IdentityFromHeaders derives the rate-limiting key from transport headers.
// The forwarded header wins (first value if comma-separated), then the direct
// peer header, then the fallback bucket. Address-less clients therefore share
// one budget; the fallback is configurable policy, not contract.
func IdentityFromHeaders(forwardedFor, realIP, fallback string) string {
	if forwardedFor != "" {
		first := forwardedFor
		if idx := strings.Index(forwardedFor, ","); idx != -1 {
			first = forwardedFor[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP = strings.TrimSpace(realIP); realIP != "" {
		return realIP
	}

	return fallback
}
