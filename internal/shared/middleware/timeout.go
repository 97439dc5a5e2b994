package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/gin-gonic/gin"
)

// Timeout bounds the request context. Lock waits and queries observe the deadline;
// the handler still writes the response. A non-positive timeout disables it.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.FromContext(ctx).Warn("요청 처리 시간 초과",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"timeout", timeout.String(),
				"status", c.Writer.Status(),
			)
		}
	}
}
