package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

const sweepThreshold = 1024

// KeyedLimiter keeps one token bucket per key (user ID or client IP).
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows requestsPerMinute per key with an equal burst.
func NewKeyedLimiter(requestsPerMinute int) *KeyedLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    requestsPerMinute,
		idleTTL:  10 * time.Minute,
	}
}

// Allow checks if a request is allowed
func (l *KeyedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	if len(l.limiters) > sweepThreshold {
		l.sweep(now)
	}
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1), nil
}

// Reset forgets the bucket for key
func (l *KeyedLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	delete(l.limiters, key)
	l.mu.Unlock()
	return nil
}

// SetRequestsPerMinute changes the rate for existing and future buckets.
func (l *KeyedLimiter) SetRequestsPerMinute(requestsPerMinute int) {
	if requestsPerMinute <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limit = rate.Limit(float64(requestsPerMinute) / 60.0)
	l.burst = requestsPerMinute
	for _, e := range l.limiters {
		e.limiter.SetLimit(l.limit)
		e.limiter.SetBurst(l.burst)
	}
}

// sweep drops idle buckets. Caller holds mu.
func (l *KeyedLimiter) sweep(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.limiters, k)
		}
	}
}

// RequestsPerMinute returns the current per-key rate
func (l *KeyedLimiter) RequestsPerMinute() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}
