package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ActionRateLimit limits state-changing calls per token subject (a game
// server or an admin), not per IP. Requires JWT to run before it.
func ActionRateLimit(action string, maxActions int, window time.Duration) gin.HandlerFunc {
	local := newLocalLimiter(maxActions, window)
	label := "action:" + action
	return func(c *gin.Context) {
		subject := Subject(c)
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if redisClient == nil {
			if !local.allow(subject) {
				RLBlocked.WithLabelValues(label).Inc()
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error":       "action rate limit exceeded",
					"retry_after": int(window.Seconds()),
				})
				return
			}
			RLRequests.WithLabelValues(label).Inc()
			c.Next()
			return
		}

		key := "action_rl:" + action + ":" + subject + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		val, err := fixedWindow(c.Request.Context(), key, window)
		if err != nil {
			c.Header("X-ActionRateLimit-Error", "redis-error")
			c.Next()
			return
		}

		c.Header("X-ActionRateLimit-Limit", strconv.Itoa(maxActions))
		c.Header("X-ActionRateLimit-Remaining", strconv.FormatInt(max(0, int64(maxActions)-val), 10))

		if val > int64(maxActions) {
			RLBlocked.WithLabelValues(label).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "action rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(label).Inc()
		c.Next()
	}
}
