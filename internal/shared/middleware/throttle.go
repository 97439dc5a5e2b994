package middleware

import (
	"log/slog"
	"sync"
	"time"

	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const throttleIdleTTL = 10 * time.Minute

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle limits request bursts per client IP with a token bucket
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	rate     rate.Limit
	burst    int
	name     string
}

func NewThrottle(name string, rps float64, burst int) *Throttle {
	return &Throttle{
		limiters: make(map[string]*throttleEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
		name:     name,
	}
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	entry, ok := t.limiters[key]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.rate, t.burst)}
		t.limiters[key] = entry
	}
	entry.lastSeen = now

	// 오래된 limiter 정리
	if len(t.limiters) > 10000 {
		for k, e := range t.limiters {
			if now.Sub(e.lastSeen) > throttleIdleTTL {
				delete(t.limiters, k)
			}
		}
	}

	return entry.limiter
}

func (t *Throttle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !t.limiter(key).Allow() {
			slog.Warn("요청 제한 초과",
				"throttle", t.name,
				"path", c.Request.URL.Path,
				"request_id", GetRequestID(c),
			)
			metrics.ThrottleRejected(t.name)
			c.AbortWithStatusJSON(sharedError.TooManyRequests.Status, sharedError.TooManyRequests)
			return
		}
		c.Next()
	}
}
