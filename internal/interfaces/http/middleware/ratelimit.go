package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brokercrm/backend/internal/interfaces/http/dto"
)

// RateLimiter counts requests per key over a fixed window. A bucket is
// created on first use and replaced once its window expires.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

type bucket struct {
	count    int
	windowAt time.Time
}

// NewRateLimiter builds a limiter allowing limit requests per window.
// Expired buckets are swept in the background.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}
	go rl.sweep()
	return rl
}

// Allow reports whether one more request under key fits the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.current(key)
	if b.count >= rl.limit {
		return false
	}
	b.count++
	return true
}

// Remaining returns how many requests key has left in its window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.current(key)
	left := rl.limit - b.count
	if left < 0 {
		return 0
	}
	return left
}

// current returns the live bucket for key, starting a fresh window when
// the previous one has expired. Caller holds the mutex.
func (rl *RateLimiter) current(key string) *bucket {
	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowAt) >= rl.window {
		b = &bucket{windowAt: now}
		rl.buckets[key] = b
	}
	return b
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, b := range rl.buckets {
			if now.Sub(b.windowAt) >= rl.window {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit throttles by client IP, scoped per actor when the request
// carries the actor header so office colleagues behind one NAT do not
// share a budget.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if actor := c.GetHeader(ActorHeader); actor != "" {
			key = actor + ":" + key
		}

		if !limiter.Allow(key) {
			rejectRateLimited(c, limiter)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}

// RateLimitByKey throttles using a caller-supplied key function. An
// empty key skips limiting.
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			c.Next()
			return
		}

		if !limiter.Allow(key) {
			rejectRateLimited(c, limiter)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, limiter *RateLimiter) {
	c.Header("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests,
		dto.NewErrorResponse(dto.ErrCodeRateLimited, "Too many requests, slow down"))
}
