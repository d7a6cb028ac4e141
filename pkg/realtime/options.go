// pkg/realtime/options.go
package realtime

import (
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// Option 管理器选项
type Option func(*Manager)

// WithLogger 设置日志记录器
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTransportFactory 替换默认的 websocket 传输层
func WithTransportFactory(f TransportFactory) Option {
	return func(m *Manager) {
		m.factory = f
	}
}

// WithMetricsRegisterer 设置 Prometheus 注册器，同时用于默认传输层
func WithMetricsRegisterer(registerer prometheus.Registerer) Option {
	return func(m *Manager) {
		m.metricsRegisterer = registerer
	}
}

// WithTransportOptions 追加默认传输层的客户端选项
func WithTransportOptions(opts ...websocket.ClientOption) Option {
	return func(m *Manager) {
		m.transportOpts = append(m.transportOpts, opts...)
	}
}
