package middleware

import (
	"log/slog"
	"time"

	sharedContext "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/context"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/gin-gonic/gin"
)

// 헬스 체크와 메트릭 수집은 debug 레벨로만 남김
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// LoggerMiddleware binds a request scoped logger to the request context and writes one access line per request
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		reqLogger := slog.Default().With("request_id", GetRequestID(c))
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), reqLogger))

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		}

		// JWT 미들웨어가 인증한 경우에만 존재
		if memberID, ok := sharedContext.GetMemberID(c); ok {
			fields = append(fields, "member_id", memberID)
		}
		if _, ok := sharedContext.GetSession(c); ok {
			fields = append(fields, "requester", "session")
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		const msg = "요청 처리 완료"
		switch {
		case status >= 500:
			reqLogger.Error(msg, fields...)
		case status >= 400:
			reqLogger.Warn(msg, fields...)
		default:
			if _, quiet := quietPaths[path]; quiet {
				reqLogger.Debug(msg, fields...)
				return
			}
			reqLogger.Info(msg, fields...)
		}
	}
}
