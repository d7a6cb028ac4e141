package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/lendhub/pkg/logger"
)

// Logger 适配 pkg/logger 的 Gin 日志中间件
func Logger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"ip", c.ClientIP(),
			"latency", time.Since(start).String(),
		}
		if uid := GetUserID(c); uid != "" {
			fields = append(fields, "user_id", uid)
		}

		ctx := c.Request.Context()
		switch {
		case len(c.Errors) > 0:
			l.ErrorContext(ctx, "http request failed", append(fields, "error", c.Errors.String())...)
		case status >= 400:
			l.WarnContext(ctx, "http request", fields...)
		default:
			l.DebugContext(ctx, "http request", fields...)
		}
	}
}
