// Package ratelimit implements fixed-window request counters keyed per client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result describes the outcome of a single Allow call.
type Result struct {
	Allowed bool
	// RetryAfter is how long until the current window resets. Only meaningful
	// when Allowed is false.
	RetryAfter time.Duration
}

// Limiter counts hits for a key within a fixed window. The window opens on the
// first hit for a key and lasts for window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process memory. Suitable for a single instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	// sweepAt bounds how often expired buckets are purged.
	sweepAt time.Time
}

// NewMemoryLimiter returns an empty MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now, window)

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		l.buckets[key] = b
	}
	b.count++
	if b.count > limit {
		return Result{Allowed: false, RetryAfter: b.resetAt.Sub(now)}, nil
	}
	return Result{Allowed: true}, nil
}

func (l *MemoryLimiter) sweep(now time.Time, window time.Duration) {
	if now.Before(l.sweepAt) {
		return
	}
	for k, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, k)
		}
	}
	l.sweepAt = now.Add(window)
}
