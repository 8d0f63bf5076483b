package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const clientHeader = "X-Client-ID"

// RateLimiter enforces a minimum interval between requests per client. The
// gateway only acknowledges acceptance, so a tight per-client cadence is
// enough; matching throughput is governed by the intake topic.
type RateLimiter struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	interval time.Duration
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		lastSeen: make(map[string]time.Time),
		interval: interval,
	}
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(clientHeader)
		if clientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": clientHeader + " header required"})
			c.Abort()
			return
		}

		r.mu.Lock()
		now := time.Now()
		last, seen := r.lastSeen[clientID]
		if seen && now.Sub(last) < r.interval {
			r.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		r.lastSeen[clientID] = now
		if len(r.lastSeen) > 10000 {
			r.prune(now)
		}
		r.mu.Unlock()

		c.Next()
	}
}

// prune drops entries already outside the interval; caller holds the lock.
func (r *RateLimiter) prune(now time.Time) {
	for id, last := range r.lastSeen {
		if now.Sub(last) >= r.interval {
			delete(r.lastSeen, id)
		}
	}
}
