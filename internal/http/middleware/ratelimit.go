package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// localLimiter keeps one token bucket per key and forgets idle keys.
type localLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*bucket
	sweep   time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLocalLimiter(maxRequests int, window time.Duration) *localLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &localLimiter{
		limit:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		buckets: make(map[string]*bucket),
	}
}

func (l *localLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweep) > 10*time.Minute {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > 10*time.Minute {
				delete(l.buckets, k)
			}
		}
		l.sweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// LocalRateLimit is the in-process limiter used when Redis is not configured.
// It allows maxRequests per window per client IP, refilled smoothly.
func LocalRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	l := newLocalLimiter(maxRequests, window)
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
