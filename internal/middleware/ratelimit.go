package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/odoyewu/odoyewu/internal/errors"
)

// RateLimitMiddleware keeps one token bucket per caller. Authenticated
// requests are keyed by user id, anonymous ones by client IP.
type RateLimitMiddleware struct {
	mu        sync.Mutex
	limiters  map[string]*visitor
	perMinute int
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimitMiddleware(perMinute, burst int) *RateLimitMiddleware {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitMiddleware{
		limiters:  make(map[string]*visitor),
		perMinute: perMinute,
		burst:     burst,
		idleTTL:   10 * time.Minute,
		now:       time.Now,
	}
}

// Allow takes one token from key's bucket
func (m *RateLimitMiddleware) Allow(key string) bool {
	now := m.now()

	m.mu.Lock()
	v, ok := m.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(m.perMinute)/60), m.burst)}
		m.limiters[key] = v
	}
	v.lastSeen = now
	m.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than the idle TTL and returns how many
// were removed
func (m *RateLimitMiddleware) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, v := range m.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(m.limiters, key)
			removed++
		}
	}
	return removed
}

// Handler must run after AuthMiddleware to key by user
func (m *RateLimitMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetUserID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !m.Allow(key) {
			abortWithError(c, errors.NewRateLimitError(m.perMinute, "1m"))
			return
		}
		c.Next()
	}
}
