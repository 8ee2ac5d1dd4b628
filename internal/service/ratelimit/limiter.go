package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter hands out one token bucket per key.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*entry
	limit rate.Limit
	burst int
	idle  time.Duration
}

// New builds a keyed limiter allowing perMinute requests with the given burst.
// Buckets untouched for longer than idle are dropped on the next Allow.
func New(perMinute, burst int, idle time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*entry),
		limit: rate.Limit(float64(perMinute) / 60.0),
		burst: burst,
		idle:  idle,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	return l.allowAt(key, time.Now())
}

func (l *Limiter) allowAt(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	if l.idle > 0 {
		for k, other := range l.m {
			if now.Sub(other.seen) > l.idle {
				delete(l.m, k)
			}
		}
	}
	return e.limiter.AllowN(now, 1)
}

// Len reports how many keys currently hold a bucket.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
