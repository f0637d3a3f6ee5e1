package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
)

// IPRateLimitMiddleware limits every request per client IP.
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.config.Enabled {
			c.Next()
			return
		}
		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// Never block on limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}
			reject(c, result)
			return
		}

		c.Next()
	}
}

// EndpointRateLimitMiddleware applies a tighter per-minute limit to one
// endpoint, keyed by client IP.
func (rl *RateLimiter) EndpointRateLimitMiddleware(endpoint string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.config.Enabled {
			c.Next()
			return
		}
		ip := c.ClientIP()
		key := fmt.Sprintf("ratelimit:endpoint:%s:%s", endpoint, ip)

		result, err := rl.Allow(c.Request.Context(), key, PerMinute(limit))
		if err != nil {
			slog.Error("Endpoint rate limit check failed", "endpoint", endpoint, "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Endpoint-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Endpoint-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitEndpoint(endpoint)
			}
			reject(c, result)
			return
		}

		c.Next()
	}
}

func reject(c *gin.Context, result *Result) {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))

	appErr := apperrors.NewRateLimitError(strconv.Itoa(retryAfter) + "s")
	appErr.RequestID = c.GetHeader("X-Request-ID")
	body := appErr.Response()
	body["retry_after"] = retryAfter
	body["reset_at"] = result.ResetAt.Unix()
	c.AbortWithStatusJSON(appErr.HTTPStatus, body)
}

// HandleRateLimitStatus reports the limiter backend and configured limits.
//
//	@Summary		Rate limit status
//	@Description	Returns the limiter backend and configured limits
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api/v1/ratelimit [get]
func (rl *RateLimiter) HandleRateLimitStatus(c *gin.Context) {
	backend := "memory"
	if rl.redisClient.IsEnabled() {
		backend = "redis"
	}

	c.JSON(200, gin.H{
		"client_ip": c.ClientIP(),
		"enabled":   rl.config.Enabled,
		"backend":   backend,
		"limits": gin.H{
			"ip_per_min":      rl.config.IPLimitPerMin,
			"analyze_per_min": rl.config.AnalyzeLimitPerMin,
			"batch_per_min":   rl.config.BatchLimitPerMin,
		},
		"stats": rl.GetStats(),
	})
}
