package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/metrics"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = time.Hour

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter allows perMinute requests per IP, refilled evenly over the minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// Cleanup drops buckets idle for longer than limiterIdleTTL.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-limiterIdleTTL)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Serve runs the periodic cleanup until ctx is done.
func (rl *RateLimiter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

func (rl *RateLimiter) String() string {
	return "rate-limiter-cleanup"
}

// Handler rejects requests over the limit with 429.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			endpoint := c.FullPath()
			if endpoint == "" {
				endpoint = c.Request.URL.Path
			}
			metrics.APIRateLimitHits.WithLabelValues(endpoint).Inc()
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
