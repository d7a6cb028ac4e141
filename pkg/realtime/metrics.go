// pkg/realtime/metrics.go
package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 连接管理器指标，nil 接收者上的方法均为空操作
type Metrics struct {
	state prometheus.Gauge

	authAttempts *prometheus.CounterVec

	eventsDispatched *prometheus.CounterVec
	eventsDropped    prometheus.Counter
	emitsDropped     prometheus.Counter

	heartbeatsSent prometheus.Counter
	pongsReceived  prometheus.Counter

	transportsCreated prometheus.Counter
	reconnects        prometheus.Counter
	transportErrors   prometheus.Counter
}

// NewMetrics 创建并注册指标
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "realtime",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lendhub",
			Subsystem: "realtime",
			Name:      "state",
			Help:      "Current manager state (0=disconnected, 1=connecting, 2=connected, 3=authenticating, 4=authenticated)",
		}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "realtime",
			Name:      "auth_total",
			Help:      "Authentication attempts by result",
		}, []string{"result"}),
		eventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lendhub",
			Subsystem: "realtime",
			Name:      "events_dispatched_total",
			Help:      "Domain events dispatched to subscribers",
		}, []string{"event"}),
		eventsDropped:     counter("events_dropped_total", "Domain events received while not authenticated"),
		emitsDropped:      counter("emits_dropped_total", "Outbound events dropped while not authenticated"),
		heartbeatsSent:    counter("heartbeats_sent_total", "Heartbeat pings sent"),
		pongsReceived:     counter("pongs_received_total", "Heartbeat pongs received"),
		transportsCreated: counter("transports_created_total", "Transports constructed"),
		reconnects:        counter("reconnects_total", "Transport reconnects"),
		transportErrors:   counter("transport_errors_total", "Transport connect errors"),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.state,
			m.authAttempts,
			m.eventsDispatched,
			m.eventsDropped,
			m.emitsDropped,
			m.heartbeatsSent,
			m.pongsReceived,
			m.transportsCreated,
			m.reconnects,
			m.transportErrors,
		)
	}

	return m
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}

// onAuth result: started / success / failure / timeout / aborted
func (m *Metrics) onAuth(result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) onDispatched(event string) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(event).Inc()
}

func (m *Metrics) onEventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

func (m *Metrics) onEmitDropped() {
	if m == nil {
		return
	}
	m.emitsDropped.Inc()
}

func (m *Metrics) onHeartbeat() {
	if m == nil {
		return
	}
	m.heartbeatsSent.Inc()
}

func (m *Metrics) onPong() {
	if m == nil {
		return
	}
	m.pongsReceived.Inc()
}

func (m *Metrics) onTransportCreated() {
	if m == nil {
		return
	}
	m.transportsCreated.Inc()
}

func (m *Metrics) onReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) onTransportError() {
	if m == nil {
		return
	}
	m.transportErrors.Inc()
}
