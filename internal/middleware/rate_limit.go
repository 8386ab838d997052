package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	clients map[string]*client
	mu      sync.Mutex
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// idleTTL is how long an idle client's bucket is kept
const idleTTL = 10 * time.Minute

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	if burstSize <= 0 {
		burstSize = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burstSize,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow checks if a request from clientIP is allowed
func (r *RateLimiter) Allow(clientIP string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evict(now)

	cl, exists := r.clients[clientIP]
	if !exists {
		cl = &client{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[clientIP] = cl
	}
	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

// evict drops buckets that have been idle for longer than idleTTL
func (r *RateLimiter) evict(now time.Time) {
	for ip, cl := range r.clients {
		if now.Sub(cl.lastSeen) > idleTTL {
			delete(r.clients, ip)
		}
	}
}

// RateLimit creates middleware for rate limiting requests
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Rate limit exceeded. Try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
