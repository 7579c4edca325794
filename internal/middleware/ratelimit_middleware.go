package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mohanraja088/simple-chat-app-demo/internal/redis"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

// Limiter is implemented by redis.RateLimiter.
type Limiter interface {
	AllowAuth(ctx context.Context, ip string) (*redis.RateLimitResult, error)
	AllowSend(ctx context.Context, ip string) (*redis.RateLimitResult, error)
}

// AuthRateLimitMiddleware limits signup and login attempts per client IP.
func AuthRateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return rateLimit(limiter.AllowAuth, "rate limit exceeded")
}

// SendRateLimitMiddleware limits message and upload writes per client IP.
func SendRateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return rateLimit(limiter.AllowSend, "message rate limit exceeded")
}

func rateLimit(allow func(context.Context, string) (*redis.RateLimitResult, error), message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// a Redis outage must not take the API down with it
			if l := logger.GetGlobalLogger(); l != nil {
				l.WithContext(c.Request.Context()).Warn("rate limit check failed", zap.Error(err))
			}
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(message, "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
