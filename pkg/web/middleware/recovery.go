package middleware

import (
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/lendhub/pkg/logger"
)

// Recovery 适配 pkg/logger 的异常恢复中间件
func Recovery(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			httpRequest, _ := httputil.DumpRequest(c.Request, false)

			if err, ok := rec.(error); ok && isBrokenPipe(err) {
				l.Warn("http broken pipe", "error", err, "path", c.Request.URL.Path)
				_ = c.Error(err)
				c.Abort()
				return
			}

			l.Error("http recovery from panic",
				"panic", rec,
				"request", string(httpRequest),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    50000,
				"message": "internal server error",
				"data":    nil,
			})
		}()
		c.Next()
	}
}

// isBrokenPipe 客户端已断开连接
func isBrokenPipe(err error) bool {
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
