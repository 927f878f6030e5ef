package middleware

import (
	"sync"
	"time"

	"investx/internal/apperr"
	"investx/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key (client IP).
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	stop     chan struct{}
	once     sync.Once
}

func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	r := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go r.cleanup()
	return r
}

// PerMinute builds a limiter allowing n requests a minute with a burst of n.
func PerMinute(n int) *RateLimiter {
	if n < 1 {
		n = 1
	}
	return NewRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = time.Now()
	r.mu.Unlock()
	return v.limiter.Allow()
}

// Stop ends the background cleanup.
func (r *RateLimiter) Stop() {
	r.once.Do(func() { close(r.stop) })
}

func (r *RateLimiter) cleanup() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-tick.C:
			cutoff := time.Now().Add(-limiterIdle)
			r.mu.Lock()
			for k, v := range r.visitors {
				if v.lastSeen.Before(cutoff) {
					delete(r.visitors, k)
				}
			}
			r.mu.Unlock()
		}
	}
}

// RateLimit returns a middleware that limits by client IP.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !limiter.Allow(key) {
			logger.Warn().Str("ip", key).Str("path", c.FullPath()).Msg("rate limit exceeded")
			RespondError(c, apperr.ErrRateLimited)
			return
		}
		c.Next()
	}
}
