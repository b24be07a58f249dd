package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the rate limiting interface
type Limiter interface {
	// Allow checks if the action is allowed for the given key
	// Returns true if allowed, false if rate limited
	Allow(key string, limit int, window time.Duration) bool

	// RetryAfter returns the duration until the rate limit resets
	RetryAfter(key string, window time.Duration) time.Duration
}

// MemoryLimiter is an in-memory fixed-window limiter, keyed by
// action:agent. Good enough for a single-process deployment; a clustered
// deployment would back this interface with a shared store.
type MemoryLimiter struct {
	mu      sync.RWMutex
	windows map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter creates a new in-memory rate limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(key string, limit int, windowDur time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]

	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(windowDur)}
		return true
	}

	if w.count >= limit {
		return false
	}

	w.count++
	return true
}

func (l *MemoryLimiter) RetryAfter(key string, windowDur time.Duration) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now()
	w, ok := l.windows[key]

	if !ok || now.After(w.resetAt) {
		return 0
	}

	return w.resetAt.Sub(now)
}

// Cleanup removes expired windows to prevent memory leaks
func (l *MemoryLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// StartCleanup starts a background goroutine to periodically clean up
// expired windows
func (l *MemoryLimiter) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			l.Cleanup()
		}
	}()
}

// Ensure MemoryLimiter implements Limiter
var _ Limiter = (*MemoryLimiter)(nil)
