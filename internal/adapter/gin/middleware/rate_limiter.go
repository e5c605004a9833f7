package middleware

import (
	"fmt"
	"net/http"

	grpcmiddleware "andrew-web-services/internal/adapter/grpc/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter returns a Gin middleware applying the shared token bucket per
// method, route and client IP.
func RateLimiter(limiter *grpcmiddleware.RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := grpcmiddleware.Key(c.Request.Method+":"+route, c.ClientIP())

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter redis error, allowing request", zap.String("key", key), zap.Error(err))
		}
		if !allowed {
			cfg := limiter.Config()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": fmt.Sprintf("Rate limit exceeded: %.2f requests/second (burst capacity: %d)", cfg.RequestsPerSecond, cfg.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}
