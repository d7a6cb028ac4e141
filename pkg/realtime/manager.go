// pkg/realtime/manager.go
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
	"github.com/lk2023060901/lendhub/pkg/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// Manager 独占一条实时连接，负责认证、心跳与事件派发
//
// 只有在 authenticated 状态下才会把领域事件派发给订阅者；
// 传输层重连成功后自动使用保存的凭证重新认证。
type Manager struct {
	config        *Config
	logger        logger.Logger
	factory       TransportFactory
	transportOpts []websocket.ClientOption

	metrics           *Metrics
	metricsRegisterer prometheus.Registerer

	registry  *registry
	auths     *authTracker
	heartbeat *Heartbeat

	manualReconnect map[string]struct{}

	// lifecycle 串行化 authenticated 状态的进入/退出与心跳启停
	lifecycle sync.Mutex

	mu        sync.RWMutex
	transport Transport
	binding   *transportBinding
	state     State
	token     string
}

// NewManager 创建连接管理器，不会建立连接
func NewManager(cfg *Config, opts ...Option) (*Manager, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		config:          merged,
		logger:          logger.NewNoop(),
		registry:        newRegistry(),
		auths:           newAuthTracker(),
		manualReconnect: make(map[string]struct{}, len(merged.ManualReconnectReasons)),
		state:           StateDisconnected,
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, reason := range merged.ManualReconnectReasons {
		m.manualReconnect[reason] = struct{}{}
	}

	if m.metricsRegisterer != nil {
		m.metrics = NewMetrics(m.metricsRegisterer)
	}

	if m.factory == nil {
		wsOpts := append([]websocket.ClientOption{
			websocket.WithClientLogger(m.logger.Named("websocket")),
		}, m.transportOpts...)
		m.factory = NewWebsocketTransportFactory(&merged.Transport, m.metricsRegisterer, wsOpts...)
	}

	m.heartbeat = NewHeartbeat(merged.HeartbeatInterval, m.sendHeartbeat)

	return m, nil
}

// Connect 获取或创建传输层
//
// token 为空表示不提供新凭证。没有任何凭证时传输层只构造不连接；
// 传输层空闲且有凭证时发起连接；已在连接中时直接返回现有句柄。
func (m *Manager) Connect(token string) (Transport, error) {
	m.mu.Lock()
	if token != "" {
		m.token = token
	}
	cred := m.token

	t := m.transport
	if t == nil {
		b := &transportBinding{m: m}
		created, err := m.factory(b)
		if err != nil {
			m.mu.Unlock()
			m.logger.Error("realtime transport construction failed", "error", err)
			return nil, unavailable(err, "create transport")
		}
		t = created
		m.transport = t
		m.binding = b
		m.metrics.onTransportCreated()
		m.logger.Debug("realtime transport created", "url", m.config.Transport.URL)
	} else if t.Active() {
		if token != "" {
			t.SetAuth(cred)
		}
		m.mu.Unlock()
		return t, nil
	}

	if cred == "" {
		m.mu.Unlock()
		m.logger.Debug("realtime transport idle until a credential is supplied")
		return t, nil
	}

	t.SetAuth(cred)
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	if err := t.Open(); err != nil {
		m.logger.Warn("realtime transport open failed", "error", err)
		m.mu.Lock()
		if m.transport == t && m.state == StateConnecting {
			m.setStateLocked(StateDisconnected)
		}
		m.mu.Unlock()
	}
	return t, nil
}

// Authenticate 发送 authenticate 并等待本次请求对应的响应
//
// 成功后进入 authenticated、保存凭证并启动心跳。
// 服务端拒绝返回 *AuthError，超时返回 ErrAuthenticationTimeout，
// 期间调用 Disconnect 或连接断开返回 ErrDisconnected。
func (m *Manager) Authenticate(ctx context.Context, token string) (*AuthResult, error) {
	m.mu.Lock()
	t := m.transport
	if t == nil {
		m.mu.Unlock()
		return nil, errors.WithStack(ErrConnectionUnavailable)
	}
	if m.state == StateConnected {
		m.setStateLocked(StateAuthenticating)
	}
	m.mu.Unlock()

	requestID := uuid.NewString()
	p := m.auths.add(requestID, token, t)
	m.metrics.onAuth("started")

	if err := t.Emit(EventAuthenticate, authRequest{Token: token, RequestID: requestID}); err != nil {
		m.auths.remove(requestID)
		m.restoreAfterAuth(t)
		m.metrics.onAuth("send_error")
		return nil, unavailable(err, "send authenticate")
	}

	timer := time.NewTimer(m.config.AuthTimeout)
	defer timer.Stop()

	select {
	case out := <-p.done:
		return m.finishAuth(t, requestID, out)

	case <-timer.C:
		if !m.auths.remove(requestID) {
			// 响应与超时同时到达，以已投递的结果为准
			return m.finishAuth(t, requestID, <-p.done)
		}
		m.restoreAfterAuth(t)
		m.metrics.onAuth("timeout")
		m.logger.Warn("realtime authentication timed out", "request_id", requestID, "timeout", m.config.AuthTimeout)
		return nil, errors.Wrapf(ErrAuthenticationTimeout, "no response within %s", m.config.AuthTimeout)

	case <-ctx.Done():
		if !m.auths.remove(requestID) {
			return m.finishAuth(t, requestID, <-p.done)
		}
		m.restoreAfterAuth(t)
		m.metrics.onAuth("canceled")
		return nil, ctx.Err()
	}
}

func (m *Manager) finishAuth(t Transport, requestID string, out authOutcome) (*AuthResult, error) {
	if out.err == nil {
		m.metrics.onAuth("success")
		m.logger.Info("realtime authenticated", "request_id", requestID)
		return out.result, nil
	}

	m.restoreAfterAuth(t)
	if errors.Is(out.err, ErrAuthenticationFailed) {
		m.metrics.onAuth("failure")
		m.logger.Warn("realtime authentication rejected", "request_id", requestID, "error", out.err)
	} else {
		m.metrics.onAuth("aborted")
	}
	return nil, out.err
}

// markAuthenticated 仍是同一传输层且未断开时进入 authenticated
func (m *Manager) markAuthenticated(t Transport, token string) bool {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if m.transport != t || m.state < StateConnected {
		m.mu.Unlock()
		return false
	}
	m.token = token
	m.setStateLocked(StateAuthenticated)
	m.mu.Unlock()

	m.heartbeat.Start()
	return true
}

// restoreAfterAuth 没有其他进行中的认证时回到 connected
func (m *Manager) restoreAfterAuth(t Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport == t && m.state == StateAuthenticating && m.auths.count() == 0 {
		m.setStateLocked(StateConnected)
	}
}

// On 订阅事件
func (m *Manager) On(event string, h Handler) ListenerID {
	return m.registry.add(event, h)
}

// Off 取消订阅，不传 ids 时移除该事件的全部回调
func (m *Manager) Off(event string, ids ...ListenerID) {
	n := m.registry.remove(event, ids...)
	m.logger.Debug("realtime listeners removed", "event", event, "count", n)
}

// Emit 发送事件；未认证时除 authenticate 外一律丢弃并记录警告
func (m *Manager) Emit(event string, payload interface{}) {
	m.mu.RLock()
	t := m.transport
	st := m.state
	m.mu.RUnlock()

	if event != EventAuthenticate && st != StateAuthenticated {
		m.metrics.onEmitDropped()
		m.logger.Warn("realtime emit dropped: not authenticated", "event", event, "state", st.String())
		return
	}
	if t == nil {
		m.metrics.onEmitDropped()
		m.logger.Warn("realtime emit dropped: no transport", "event", event)
		return
	}
	if err := t.Emit(event, payload); err != nil {
		m.logger.Warn("realtime emit failed", "event", event, "error", err)
	}
}

// Disconnect 停止心跳、清除凭证与订阅并关闭传输层，已断开时同样安全
func (m *Manager) Disconnect() {
	m.lifecycle.Lock()
	m.mu.Lock()
	t := m.transport
	m.transport = nil
	m.binding = nil
	m.token = ""
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()
	m.heartbeat.Stop()
	m.lifecycle.Unlock()

	aborted := m.auths.abortAll(ErrDisconnected)
	m.registry.clear()

	if t == nil {
		return
	}
	if err := t.Close(); err != nil {
		m.logger.Warn("realtime transport close failed", "error", err)
	}
	m.logger.Info("realtime disconnected", "aborted_auth", aborted)
}

// IsConnected 传输层已连接（含认证中与已认证）
func (m *Manager) IsConnected() bool {
	return m.State() >= StateConnected
}

// IsAuthenticated 是否已认证
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// State 当前状态
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Transport 当前传输层，未创建时为 nil
func (m *Manager) Transport() Transport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transport
}

// Stats 运行时快照
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	st := m.state
	hasTransport := m.transport != nil
	m.mu.RUnlock()

	return Stats{
		State:            st,
		HasTransport:     hasTransport,
		Listeners:        m.registry.total(),
		PendingAuth:      m.auths.count(),
		HeartbeatRunning: m.heartbeat.Running(),
		LastPong:         m.heartbeat.LastPong(),
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.logger.Debug("realtime state changed", "from", m.state.String(), "to", s.String())
	m.state = s
	m.metrics.setState(s)
}

func (m *Manager) sendHeartbeat() {
	m.mu.RLock()
	t := m.transport
	authed := m.state == StateAuthenticated
	m.mu.RUnlock()

	if t == nil || !authed {
		return
	}
	if err := t.Emit(EventPing, nil); err != nil {
		m.logger.Debug("realtime heartbeat send failed", "error", err)
		return
	}
	m.metrics.onHeartbeat()
}

// ================================
// 传输层回调
// ================================

// transportBinding 每个传输层一份，传输层被替换后旧回调全部忽略
type transportBinding struct {
	m *Manager
}

var _ TransportHandler = (*transportBinding)(nil)

func (b *transportBinding) OnConnect()                                { b.m.handleConnected(b, 0) }
func (b *transportBinding) OnReconnect(attempt int)                   { b.m.handleConnected(b, attempt) }
func (b *transportBinding) OnDisconnect(reason string)                { b.m.handleDisconnect(b, reason) }
func (b *transportBinding) OnConnectError(err error)                  { b.m.handleConnectError(b, err) }
func (b *transportBinding) OnReconnectAttempt(attempt int)            { b.m.handleReconnectAttempt(b, attempt) }
func (b *transportBinding) OnEvent(name string, data json.RawMessage) { b.m.handleEvent(b, name, data) }

func (m *Manager) current(b *transportBinding) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.binding == b
}

func (m *Manager) handleConnected(b *transportBinding, attempt int) {
	m.mu.Lock()
	if m.binding != b {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateConnected)
	token := m.token
	m.mu.Unlock()

	if attempt > 0 {
		m.metrics.onReconnect()
		m.logger.Info("realtime transport reconnected", "attempt", attempt)
	} else {
		m.logger.Info("realtime transport connected")
	}

	if token == "" {
		m.logger.Debug("realtime connected without credential, skipping authentication")
		return
	}

	// 不阻塞传输层回调
	conc.Go(func() (struct{}, error) {
		if _, err := m.Authenticate(context.Background(), token); err != nil {
			m.logger.Warn("realtime authentication after connect failed", "error", err)
		}
		return struct{}{}, nil
	})
}

func (m *Manager) handleDisconnect(b *transportBinding, reason string) {
	m.lifecycle.Lock()
	m.mu.Lock()
	if m.binding != b {
		m.mu.Unlock()
		m.lifecycle.Unlock()
		return
	}
	prev := m.state
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()
	m.heartbeat.Stop()
	m.lifecycle.Unlock()

	aborted := m.auths.abortAll(ErrDisconnected)
	m.logger.Info("realtime transport disconnected",
		"reason", reason,
		"previous_state", prev.String(),
		"aborted_auth", aborted,
	)

	if _, ok := m.manualReconnect[reason]; ok {
		m.logger.Info("realtime reconnecting after server initiated disconnect", "reason", reason)
		if _, err := m.Connect(""); err != nil {
			m.logger.Warn("realtime manual reconnect failed", "error", err)
		}
	}
}

func (m *Manager) handleConnectError(b *transportBinding, err error) {
	if !m.current(b) {
		return
	}
	m.metrics.onTransportError()
	m.logger.Warn("realtime transport connect error", "error", err)
}

// handleReconnectAttempt 每次重连拨号前重新设置握手凭证
func (m *Manager) handleReconnectAttempt(b *transportBinding, attempt int) {
	m.mu.Lock()
	if m.binding != b {
		m.mu.Unlock()
		return
	}
	t := m.transport
	token := m.token
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	if token != "" {
		t.SetAuth(token)
	}
	m.logger.Debug("realtime reconnect attempt", "attempt", attempt)
}

func (m *Manager) handleEvent(b *transportBinding, name string, data json.RawMessage) {
	if !m.current(b) {
		return
	}

	switch name {
	case EventAuthSuccess, EventAuthError:
		m.handleAuthResponse(name, data)
		return
	case EventPong:
		var p pongPayload
		if len(data) > 0 {
			if err := json.Unmarshal(data, &p); err != nil {
				// 时间戳不可用，按本地接收时间记录
				m.logger.Debug("realtime pong payload is not an object", "error", err)
			}
		}
		var ts time.Time
		if p.Timestamp > 0 {
			ts = time.UnixMilli(p.Timestamp)
		}
		m.heartbeat.OnPong(ts)
		m.metrics.onPong()
	}

	m.dispatch(name, data)
}

func (m *Manager) handleAuthResponse(name string, data json.RawMessage) {
	var resp authResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			m.logger.Debug("realtime auth response is not an object", "event", name, "error", err)
		}
	}

	p := m.auths.take(resp.RequestID)
	if p == nil {
		m.logger.Debug("realtime auth response without pending request", "event", name, "request_id", resp.RequestID)
		return
	}

	var out authOutcome
	switch {
	case name == EventAuthError:
		out.err = &AuthError{RequestID: resp.RequestID, Reason: resp.Message}
	case m.markAuthenticated(p.transport, p.token):
		// 在读循环内切换状态，紧随其后的推送事件可以正常派发
		out.result = &AuthResult{RequestID: resp.RequestID, Data: data}
	default:
		out.err = errors.WithStack(ErrDisconnected)
	}
	p.done <- out
}

// dispatch 仅在已认证时派发，遍历快照
func (m *Manager) dispatch(name string, data json.RawMessage) {
	if !m.IsAuthenticated() {
		m.metrics.onEventDropped()
		m.logger.Debug("realtime event dropped before authentication", "event", name)
		return
	}

	handlers := m.registry.snapshot(name)
	if len(handlers) == 0 {
		return
	}

	ev := Event{Name: name, Data: data, ReceivedAt: time.Now()}
	for _, h := range handlers {
		m.invoke(h, ev)
	}
	m.metrics.onDispatched(name)
}

func (m *Manager) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("realtime handler panicked", "event", ev.Name, "panic", r)
		}
	}()
	h(ev)
}
