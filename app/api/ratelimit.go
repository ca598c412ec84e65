package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding-window limiter keyed by client. Each client
// holds a fixed-capacity window of request timestamps; stale entries are
// evicted on every check, so memory stays bounded by limit per client.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	clients   map[string][]time.Time
	now       func() time.Time
	lastSweep time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records a request for the key and reports whether it fits the
// window.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// Per-key eviction only runs when a key is revisited; a periodic
	// sweep drops keys whose clients went away entirely.
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	kept := l.clients[key][:0]
	for _, ts := range l.clients[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.clients[key] = kept
		return false
	}

	l.clients[key] = append(kept, now)
	return true
}

func (l *RateLimiter) sweep(cutoff time.Time) {
	for key, stamps := range l.clients {
		idle := true
		for _, ts := range stamps {
			if ts.After(cutoff) {
				idle = false
				break
			}
		}
		if idle {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
