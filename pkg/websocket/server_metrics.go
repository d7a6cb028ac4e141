// pkg/websocket/server_metrics.go
package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ServerMetrics 服务端指标，nil 接收者上的方法均为空操作
type ServerMetrics struct {
	activeConnections prometheus.Gauge
	totalConnections  prometheus.Counter
	upgradeErrors     prometheus.Counter
	messagesSent      prometheus.Counter
	messagesReceived  prometheus.Counter
}

// NewServerMetrics 创建并注册服务端指标
func NewServerMetrics(registerer prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lendhub",
			Subsystem: "websocket_server",
			Name:      "active_connections",
			Help:      "Number of active WebSocket connections",
		}),
		totalConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "websocket_server",
			Name:      "connections_total",
			Help:      "Total number of WebSocket connections",
		}),
		upgradeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "websocket_server",
			Name:      "upgrade_errors_total",
			Help:      "Total number of rejected or failed upgrades",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "websocket_server",
			Name:      "messages_sent_total",
			Help:      "Total number of event frames queued for sending",
		}),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "websocket_server",
			Name:      "messages_received_total",
			Help:      "Total number of event frames received",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.activeConnections,
			m.totalConnections,
			m.upgradeErrors,
			m.messagesSent,
			m.messagesReceived,
		)
	}

	return m
}

func (m *ServerMetrics) onOpened() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
	m.totalConnections.Inc()
}

func (m *ServerMetrics) onClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

func (m *ServerMetrics) onUpgradeError() {
	if m == nil {
		return
	}
	m.upgradeErrors.Inc()
}

func (m *ServerMetrics) onSent(n int) {
	if m == nil {
		return
	}
	m.messagesSent.Add(float64(n))
}

func (m *ServerMetrics) onReceived() {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
}
