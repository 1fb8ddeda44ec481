// Package gateway exposes sessions over a framed WebSocket protocol so
// an external presentation shell can start, observe, and abort runs.
package gateway

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces per-client request limits using a token bucket.
type RateLimiter struct {
	limiters sync.Map   // client key → *limiterEntry
	r        rate.Limit // refill rate (requests per second)
	burst    int
}

type limiterEntry struct {
	limiter *rate.Limiter

	// lastSeen holds unix nanos; written in Allow and read by the
	// cleanup goroutine, so it must be atomic.
	lastSeen atomic.Int64
}

// NewRateLimiter creates a limiter from requests-per-minute and burst.
// rpm <= 0 disables limiting.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	r := rate.Limit(0)
	if rpm > 0 {
		r = rate.Limit(float64(rpm) / 60.0)
	}
	rl := &RateLimiter{r: r, burst: burst}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.r == 0 {
		return true
	}
	entry := rl.getOrCreate(key)
	if !entry.limiter.Allow() {
		slog.Warn("gateway request rate limited", "key", key)
		return false
	}
	entry.lastSeen.Store(time.Now().UnixNano())
	return true
}

func (rl *RateLimiter) getOrCreate(key string) *limiterEntry {
	if val, ok := rl.limiters.Load(key); ok {
		return val.(*limiterEntry)
	}
	entry := &limiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
	entry.lastSeen.Store(time.Now().UnixNano())
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.cleanup(time.Now().Add(-10 * time.Minute))
	}
}

// cleanup drops entries not seen since cutoff.
func (rl *RateLimiter) cleanup(cutoff time.Time) {
	rl.limiters.Range(func(key, val interface{}) bool {
		if val.(*limiterEntry).lastSeen.Load() < cutoff.UnixNano() {
			rl.limiters.Delete(key)
		}
		return true
	})
}
