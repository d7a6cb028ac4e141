package websocket

import (
	"net/http"
	"strings"

	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerOption 服务端选项
type ServerOption func(*Server)

func WithServerLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithServerMetricsRegisterer(registerer prometheus.Registerer) ServerOption {
	return func(s *Server) {
		s.metricsRegisterer = registerer
	}
}

// WithAllowedOrigins 浏览器握手的 Origin 白名单，与 HTTP 接口的 CORS 配置共用
// 列表为空时接受任意来源；无 Origin 头的非浏览器客户端始终接受
func WithAllowedOrigins(origins ...string) ServerOption {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(s *Server) {
		s.config.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			_, ok := allowed[strings.ToLower(origin)]
			return ok
		}
	}
}

// ClientOption 客户端选项
type ClientOption func(*Client)

func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAuthToken 首次握手携带的 token，之后由 SetAuth 更新
func WithAuthToken(token string) ClientOption {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithClientMetrics 复用已注册的指标；Manager 每次 Connect 都会新建 Client，不能重复注册
func WithClientMetrics(m *ClientMetrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}
