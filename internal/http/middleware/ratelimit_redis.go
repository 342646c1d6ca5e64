package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by the middleware.
// If addr is empty or the ping fails, redisClient stays nil and the limiters
// fall back to in-process buckets.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient = nil
	}
}

// SetRedisClient shares an already connected client. nil disables Redis.
func SetRedisClient(c *redis.Client) {
	redisClient = c
}

// fixedWindow counts one hit on key and reports the count in the current
// window.
func fixedWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}
	return val, nil
}

// RedisRateLimit implements a fixed-window rate limiter per client IP using
// Redis INCR/EXPIRE. key format: rl:<window_seconds>:<ip>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	local := newLocalLimiter(maxRequests, window)
	return func(c *gin.Context) {
		ident := c.ClientIP()
		if redisClient == nil {
			if !local.allow(ident) {
				RLBlocked.WithLabelValues(c.FullPath()).Inc()
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
				return
			}
			RLRequests.WithLabelValues(c.FullPath()).Inc()
			c.Next()
			return
		}

		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		val, err := fixedWindow(c.Request.Context(), key, window)
		if err != nil {
			// fail-open
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
