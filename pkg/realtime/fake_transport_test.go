package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/lendhub/pkg/websocket"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event string
	data  interface{}
}

// fakeTransport 由测试驱动生命周期事件
type fakeTransport struct {
	handler TransportHandler

	mu        sync.Mutex
	opens     int
	closes    int
	auths     []string
	emits     []emitted
	connected bool
	active    bool
	emitErr   error
}

func (f *fakeTransport) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	f.active = true
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.active = false
	f.connected = false
	return nil
}

func (f *fakeTransport) Emit(event string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emits = append(f.emits, emitted{event: event, data: data})
	return nil
}

func (f *fakeTransport) SetAuth(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auths = append(f.auths, token)
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// connect 模拟首次连接成功
func (f *fakeTransport) connect() {
	f.mu.Lock()
	f.connected = true
	f.active = true
	f.mu.Unlock()
	f.handler.OnConnect()
}

// drop 模拟断开，只有可自动重连的原因保持 active
func (f *fakeTransport) drop(reason string) {
	f.dropWith(reason, websocket.ShouldAutoReconnect(reason))
}

func (f *fakeTransport) dropWith(reason string, autoReconnect bool) {
	f.mu.Lock()
	f.connected = false
	f.active = autoReconnect
	f.mu.Unlock()
	f.handler.OnDisconnect(reason)
}

// reconnect 模拟一次重连尝试并成功
func (f *fakeTransport) reconnect(attempt int) {
	f.handler.OnReconnectAttempt(attempt)
	f.mu.Lock()
	f.connected = true
	f.active = true
	f.mu.Unlock()
	f.handler.OnReconnect(attempt)
}

func (f *fakeTransport) push(t *testing.T, event string, data interface{}) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		raw = b
	}
	f.handler.OnEvent(event, raw)
}

func (f *fakeTransport) emitsOf(event string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.emits {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTransport) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func (f *fakeTransport) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auths) == 0 {
		return ""
	}
	return f.auths[len(f.auths)-1]
}

// authRequests 等待至少 n 个 authenticate 并返回全部
func (f *fakeTransport) authRequests(t *testing.T, n int) []authRequest {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.emitsOf(EventAuthenticate)) >= n
	}, 2*time.Second, 5*time.Millisecond, "expected %d authenticate emits", n)

	var out []authRequest
	for _, e := range f.emitsOf(EventAuthenticate) {
		req, ok := e.data.(authRequest)
		require.True(t, ok)
		out = append(out, req)
	}
	return out
}

type fakeFactory struct {
	mu         sync.Mutex
	transports []*fakeTransport
	err        error
}

func (ff *fakeFactory) build(h TransportHandler) (Transport, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.err != nil {
		return nil, ff.err
	}
	ft := &fakeTransport{handler: h}
	ff.transports = append(ff.transports, ft)
	return ft, nil
}

func (ff *fakeFactory) count() int {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return len(ff.transports)
}

func (ff *fakeFactory) last() *fakeTransport {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return ff.transports[len(ff.transports)-1]
}

func newTestManager(t *testing.T, mutate func(*Config)) (*Manager, *fakeFactory) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.AuthTimeout = 500 * time.Millisecond
	cfg.HeartbeatInterval = 20 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	ff := &fakeFactory{}
	m, err := NewManager(cfg, WithTransportFactory(ff.build))
	require.NoError(t, err)
	t.Cleanup(m.Disconnect)
	return m, ff
}

// authenticateViaConnect 连接、自动认证并回复成功
func authenticateViaConnect(t *testing.T, m *Manager, ff *fakeFactory, token string) *fakeTransport {
	t.Helper()

	_, err := m.Connect(token)
	require.NoError(t, err)
	ft := ff.last()
	ft.connect()

	before := len(ft.emitsOf(EventAuthenticate))
	reqs := ft.authRequests(t, before+1)
	req := reqs[len(reqs)-1]
	require.Equal(t, token, req.Token)

	ft.push(t, EventAuthSuccess, map[string]string{"request_id": req.RequestID, "user_id": "u-1"})
	require.Eventually(t, m.IsAuthenticated, 2*time.Second, 5*time.Millisecond)
	return ft
}
