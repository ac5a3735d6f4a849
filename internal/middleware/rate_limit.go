// Middleware: fixed-window request limit shared across instances through Redis.
package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/i18n"
	"github.com/Mikbal34/muhasebe-sub003/internal/response"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimit describes one limiter: at most Limit requests per Window per client IP.
type RateLimit struct {
	Name   string
	Limit  int
	Window time.Duration
}

// RateLimitMiddleware counts requests per client IP in Redis and answers 429
// above the limit. Redis failures let the request through: the limiter is a
// guard, not a dependency of the API.
func RateLimitMiddleware(rdb *redis.Client, rl RateLimit, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s%s:%s", rateLimitKeyPrefix, rl.Name, c.ClientIP())
		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit unavailable", zap.String("limiter", rl.Name), zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, rl.Window)
		}
		ttl, _ := rdb.TTL(ctx, key).Result()
		if ttl < 0 {
			rdb.Expire(ctx, key, rl.Window)
			ttl = rl.Window
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
		remaining := rl.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(rl.Limit) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			response.AbortWithError(c, http.StatusTooManyRequests, i18n.T(LanguageFrom(c.Request.Context()), "error.rate_limit"))
			return
		}
		c.Next()
	}
}
