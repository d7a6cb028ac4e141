// pkg/websocket/client_metrics.go
package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics 客户端指标，nil 接收者上的方法均为空操作
type ClientMetrics struct {
	connectionState  prometheus.Gauge
	connectionsTotal prometheus.Counter
	disconnectsTotal prometheus.Counter

	reconnectAttempts prometheus.Counter
	reconnectSuccess  prometheus.Counter

	pingsSent     prometheus.Counter
	pongsReceived prometheus.Counter

	messagesSent     prometheus.Counter
	messagesReceived prometheus.Counter
	bytesSent        prometheus.Counter

	errors *prometheus.CounterVec
}

// NewClientMetrics 创建并注册客户端指标
func NewClientMetrics(registerer prometheus.Registerer) *ClientMetrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "websocket_client",
			Name:      name,
			Help:      help,
		})
	}

	m := &ClientMetrics{
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lendhub",
			Subsystem: "websocket_client",
			Name:      "connection_state",
			Help:      "Current connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=closed)",
		}),
		connectionsTotal:  counter("connections_total", "Total number of connections established"),
		disconnectsTotal:  counter("disconnects_total", "Total number of disconnections"),
		reconnectAttempts: counter("reconnect_attempts_total", "Total number of reconnection attempts"),
		reconnectSuccess:  counter("reconnect_success_total", "Total number of successful reconnections"),
		pingsSent:         counter("pings_sent_total", "Total number of protocol pings sent"),
		pongsReceived:     counter("pongs_received_total", "Total number of protocol pongs received"),
		messagesSent:      counter("messages_sent_total", "Total number of event frames sent"),
		messagesReceived:  counter("messages_received_total", "Total number of event frames received"),
		bytesSent:         counter("bytes_sent_total", "Total bytes of event frames sent"),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "websocket_client",
			Name:      "errors_total",
			Help:      "Total number of errors",
		}, []string{"type"}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.connectionState,
			m.connectionsTotal,
			m.disconnectsTotal,
			m.reconnectAttempts,
			m.reconnectSuccess,
			m.pingsSent,
			m.pongsReceived,
			m.messagesSent,
			m.messagesReceived,
			m.bytesSent,
			m.errors,
		)
	}

	return m
}

func (m *ClientMetrics) setState(s ConnectionState) {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(s))
}

func (m *ClientMetrics) onConnected() {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(StateConnected))
	m.connectionsTotal.Inc()
}

func (m *ClientMetrics) onDisconnected() {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(StateDisconnected))
	m.disconnectsTotal.Inc()
}

func (m *ClientMetrics) onReconnectAttempt() {
	if m == nil {
		return
	}
	m.reconnectAttempts.Inc()
}

func (m *ClientMetrics) onReconnected() {
	if m == nil {
		return
	}
	m.reconnectSuccess.Inc()
}

func (m *ClientMetrics) onPingSent() {
	if m == nil {
		return
	}
	m.pingsSent.Inc()
}

func (m *ClientMetrics) onPongReceived() {
	if m == nil {
		return
	}
	m.pongsReceived.Inc()
}

func (m *ClientMetrics) onMessageSent(size int64) {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
	m.bytesSent.Add(float64(size))
}

func (m *ClientMetrics) onMessageReceived() {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
}

func (m *ClientMetrics) onError(errType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errType).Inc()
}
