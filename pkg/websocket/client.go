// pkg/websocket/client.go
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/serializer"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
)

// EventHandler 传输层事件回调，所有回调都在 Client 的工作协程中执行
type EventHandler interface {
	// OnConnect 首次连接成功
	OnConnect()
	// OnDisconnect 连接断开，reason 见 Reason* 常量
	OnDisconnect(reason string)
	// OnConnectError 拨号失败
	OnConnectError(err error)
	// OnReconnectAttempt 每次重连拨号之前
	OnReconnectAttempt(attempt int)
	// OnReconnect 重连成功（不再触发 OnConnect）
	OnReconnect(attempt int)
	// OnEvent 收到事件帧
	OnEvent(event string, data json.RawMessage)
}

// Client 带自动重连的事件式 WebSocket 客户端
type Client struct {
	config  *ClientConfig
	logger  logger.Logger
	dialer  *websocket.Dialer
	handler EventHandler

	serializer serializer.Serializer

	reconnector *Reconnector

	metrics *ClientMetrics

	workerPool *conc.Pool[struct{}]

	mu        sync.RWMutex
	state     ConnectionState
	conn      *Connection
	keepalive *Keepalive
	authToken string

	closed    atomic.Bool
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewClient 创建客户端，handler 在构造时绑定且只绑定一次
func NewClient(cfg *ClientConfig, handler EventHandler, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, ErrInvalidConfig
	}

	ser, err := serializer.ByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:     cfg,
		logger:     logger.NewNoop(),
		handler:    handler,
		serializer: ser,
		state:      StateDisconnected,
		closeCh:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.dialer = &websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  cfg.DialTimeout,
		ReadBufferSize:    cfg.ReadBufferSize,
		WriteBufferSize:   cfg.WriteBufferSize,
		EnableCompression: cfg.EnableCompression,
	}

	if cfg.TLS != nil {
		tlsConfig, err := cfg.TLS.BuildTLSConfig()
		if err != nil {
			return nil, err
		}
		c.dialer.TLSClientConfig = tlsConfig
	}

	c.reconnector = NewReconnector(&cfg.Reconnect, c, c.logger)

	c.workerPool = conc.NewPool[struct{}](cfg.WorkerPoolSize)

	return c, nil
}

// SetAuth 设置下一次握手使用的 bearer token，空字符串表示不带凭证
func (c *Client) SetAuth(token string) {
	c.mu.Lock()
	c.authToken = token
	c.mu.Unlock()
}

// Open 后台发起连接，立即返回；已在连接、已连接或重连中时不做任何事
func (c *Client) Open() error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.metrics.setState(StateConnecting)

	return c.submit(func() {
		conn, err := c.dial(context.Background())
		if err != nil {
			c.logger.Warn("websocket connect failed", "url", c.config.URL, "error", err)
			c.metrics.onError("dial")
			c.handler.OnConnectError(err)
			c.startReconnect(StateConnecting)
			return
		}

		c.handler.OnConnect()
		c.startReading(conn)
	})
}

// dial 建立底层连接并启动写循环与 keepalive
func (c *Client) dial(ctx context.Context) (*Connection, error) {
	header := make(http.Header)
	for k, v := range c.config.Headers {
		header.Set(k, v)
	}
	c.mu.RLock()
	token := c.authToken
	c.mu.RUnlock()
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	wsConn, _, err := c.dialer.DialContext(ctx, c.config.URL, header)
	if err != nil {
		return nil, err
	}

	readTimeout := c.config.Keepalive.Timeout
	if !c.config.Keepalive.Enable {
		readTimeout = 0
	}
	conn := NewConnection(wsConn,
		WithConnectionLogger(c.logger),
		WithConnectionSerializer(c.serializer),
		WithConnectionTimeouts(readTimeout, c.config.WriteTimeout),
		WithSendQueueSize(c.config.SendQueueSize),
	)

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		conn.MarkLocalClose()
		_ = conn.Close()
		return nil, ErrClientClosed
	}
	c.conn = conn
	c.state = StateConnected
	if c.config.Keepalive.Enable {
		c.keepalive = NewKeepalive(&c.config.Keepalive, conn, c.logger, c.metrics)
	}
	keepalive := c.keepalive
	c.mu.Unlock()

	c.metrics.onConnected()
	c.logger.Info("websocket connected", "url", c.config.URL, "conn_id", conn.ID())

	if err := c.submit(conn.WriteLoop); err != nil {
		conn.Abort(ReasonTransportError)
		return nil, err
	}
	if keepalive != nil {
		conn.SetPongHandler(keepalive.OnPong)
		if err := c.submit(keepalive.Run); err != nil {
			conn.Abort(ReasonTransportError)
			return nil, err
		}
	}

	return conn, nil
}

// startReading 在工作协程中运行读循环，结束后处理断开
func (c *Client) startReading(conn *Connection) {
	err := c.submit(func() {
		reason := conn.ReadLoop(func(env Envelope) {
			c.metrics.onMessageReceived()
			c.handler.OnEvent(env.Event, env.Data)
		})
		c.handleDisconnect(conn, reason)
	})
	if err != nil {
		conn.Abort(ReasonTransportError)
	}
}

// handleDisconnect 处理断开，只对当前连接生效
func (c *Client) handleDisconnect(conn *Connection, reason string) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.keepalive = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	c.metrics.onDisconnected()
	c.logger.Info("websocket disconnected", "reason", reason, "conn_id", conn.ID())

	c.handler.OnDisconnect(reason)

	if ShouldAutoReconnect(reason) {
		c.startReconnect(StateDisconnected)
	}
}

// startReconnect 仅当状态仍为 from 时进入重连循环，避免与并发的 Open 重复拨号
// 未启用重连时回到 disconnected 等待 Open
func (c *Client) startReconnect(from ConnectionState) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	if c.state != from {
		c.mu.Unlock()
		return
	}
	if !c.config.Reconnect.Enable {
		c.state = StateDisconnected
		c.mu.Unlock()
		c.metrics.setState(StateDisconnected)
		return
	}
	c.state = StateReconnecting
	c.mu.Unlock()
	c.metrics.setState(StateReconnecting)

	err := c.submit(func() {
		if err := c.reconnector.Run(c.closeCh); err != nil {
			c.setState(StateDisconnected)
		}
	})
	if err != nil {
		c.setState(StateDisconnected)
	}
}

func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	if c.state != StateClosed {
		c.state = s
	}
	c.mu.Unlock()
	c.metrics.setState(s)
}

// submit 任务本身不返回错误，Future 立即完成且带错误说明提交失败
func (c *Client) submit(fn func()) error {
	f := c.workerPool.Submit(func() (struct{}, error) {
		fn()
		return struct{}{}, nil
	})
	if f.Done() {
		return f.Err()
	}
	return nil
}

// Emit 发送事件帧
func (c *Client) Emit(event string, data interface{}) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	n, err := conn.Emit(event, data)
	if err != nil {
		c.metrics.onError("send")
		return err
	}
	c.metrics.onMessageSent(int64(n))
	return nil
}

// State 获取连接状态
func (c *Client) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connected 底层连接已打开
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// Active 正在连接、已连接或重连中
func (c *Client) Active() bool {
	switch c.State() {
	case StateConnecting, StateConnected, StateReconnecting:
		return true
	default:
		return false
	}
}

// Close 关闭客户端，不触发 OnDisconnect；关闭后不可再 Open
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.keepalive = nil
		c.state = StateClosed
		c.mu.Unlock()
		c.metrics.setState(StateClosed)

		if conn != nil {
			conn.MarkLocalClose()
			err = conn.Close()
			c.logger.Info("websocket closed", "reason", ReasonClientDisconnect, "conn_id", conn.ID())
		}

		c.workerPool.Release()
	})
	return err
}
