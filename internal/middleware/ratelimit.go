package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ayash-Bera/carprice/backend/pkg/utils"
)

// RateLimiter implements a simple in-memory per-IP rate limiter
type RateLimiter struct {
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     int           // requests per minute
	cleanup  time.Duration // cleanup interval
	done     chan struct{}
	once     sync.Once
}

type Visitor struct {
	lastSeen time.Time
	count    int
}

// NewRateLimiter starts a limiter allowing rate requests per minute per IP.
// Call Stop to end its cleanup goroutine.
func NewRateLimiter(rate int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate,
		cleanup:  time.Minute,
		done:     make(chan struct{}),
	}

	go rl.cleanupVisitors()

	return rl
}

// RateLimit middleware function. A rate of zero disables limiting.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()

		rl.mu.Lock()
		v, exists := rl.visitors[ip]
		if !exists || time.Since(v.lastSeen) > time.Minute {
			rl.visitors[ip] = &Visitor{lastSeen: time.Now(), count: 1}
			rl.mu.Unlock()
			c.Next()
			return
		}

		if v.count >= rl.rate {
			rl.mu.Unlock()
			utils.ErrorResponse(c, http.StatusTooManyRequests, utils.CodeRateLimited,
				fmt.Sprintf("rate limit of %d requests per minute exceeded", rl.rate))
			return
		}

		v.count++
		v.lastSeen = time.Now()
		rl.mu.Unlock()

		c.Next()
	}
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// cleanupVisitors removes old visitor entries
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > time.Minute*5 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Security middleware
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

const RequestIDKey = "request_id"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}

		c.Header("X-Request-ID", requestID)
		c.Set(RequestIDKey, requestID)
		c.Next()
	}
}

// RequestIDFromContext returns the ID set by RequestID, or "".
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
