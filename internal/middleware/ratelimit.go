package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-system/backend/internal/apperror"
	"github.com/emilythestrangee/comment-system/backend/internal/ratelimit"
)

// RateLimit applies policy p per client IP. Requests to the except paths
// are not counted. When the limiter itself fails the request is let through.
func RateLimit(l ratelimit.Limiter, p ratelimit.Policy, lg *slog.Logger, except ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(except))
	for _, path := range except {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		d, err := l.Allow(c.Request.Context(), p, c.ClientIP())
		if err != nil {
			lg.Warn("rate limiter unavailable", "policy", p.Name, "error", err)
			c.Next()
			return
		}

		c.Header("RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds()))))

		if !d.Allowed {
			_ = c.Error(apperror.RateLimited())
			c.Abort()
			return
		}
		c.Next()
	}
}
