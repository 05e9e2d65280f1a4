// Package ratelimit provides a keyed token bucket shared by the chat and admin surfaces.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// idleTTL is how long an unused bucket is kept before Sweep drops it.
const idleTTL = 5 * time.Minute

// Limiter is a per-key token bucket: rate tokens per interval, refilled whole.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // tokens per interval
	interval time.Duration // refill interval
	now      func() time.Time
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// New creates a limiter allowing rate events per interval for each key.
// PRE: rate > 0, interval > 0
func New(rate int, interval time.Duration) *Limiter {
	return &Limiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		interval: interval,
		now:      time.Now,
	}
}

// Allow reports whether key may act now, spending one token if so.
// PRE: key is non-empty
// POST: Returns true if within rate limit, false if exceeded
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, exists := l.visitors[key]
	if !exists {
		l.visitors[key] = &visitor{tokens: l.rate - 1, lastSeen: now}
		return true
	}

	refill := int(now.Sub(v.lastSeen)/l.interval) * l.rate
	if refill > 0 {
		v.tokens += refill
		if v.tokens > l.rate {
			v.tokens = l.rate
		}
		v.lastSeen = now
	}

	if v.tokens <= 0 {
		slog.Warn("rate_limit_exceeded", "key", key)
		return false
	}
	v.tokens--
	return true
}

// Sweep drops buckets idle for longer than the TTL.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	dropped := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleTTL {
			delete(l.visitors, key)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every minute until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
