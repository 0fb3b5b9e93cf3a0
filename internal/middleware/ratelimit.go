package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mining-rewards-backend/internal/services"
)

// RateLimitMiddleware throttles the mutating mining endpoints per client IP.
// Authentication is delegated to the external identity provider in front of
// this service, so IP is the only request-level identity available here; the
// per-user limits inside the handlers and the atomic quota scripts are the
// real enforcement.
func RateLimitMiddleware(redisService *services.RedisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		path := c.Request.URL.Path

		var limit int
		var window time.Duration

		switch {
		case strings.Contains(path, "/startSession"):
			limit = 60
			window = time.Minute
		case strings.Contains(path, "/activateBoost"):
			limit = 60
			window = time.Minute
		case strings.Contains(path, "/watchAndEarnComplete"):
			limit = 60
			window = time.Minute
		default:
			c.Next()
			return
		}

		allowed, err := redisService.CheckRateLimit("ip:"+c.ClientIP(), path, limit, window)
		if err != nil || !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
