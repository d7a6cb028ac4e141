// pkg/websocket/connection.go
package websocket

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/serializer"
)

// Connection 单条 WebSocket 连接，客户端与服务端共用
type Connection struct {
	id   string
	conn *websocket.Conn

	writeTimeout time.Duration
	readTimeout  time.Duration

	sendChan chan *Message

	logger     logger.Logger
	serializer serializer.Serializer

	metadata sync.Map

	closed    atomic.Bool
	closeChan chan struct{}
	closeOnce sync.Once
	// 本地指定的断开原因，优先于读错误推断
	reason atomic.Value

	remoteAddr  string
	connectedAt time.Time
}

// ConnectionOption 连接选项
type ConnectionOption func(*Connection)

// WithConnectionLogger 设置日志
func WithConnectionLogger(l logger.Logger) ConnectionOption {
	return func(c *Connection) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConnectionSerializer 设置序列化器
func WithConnectionSerializer(s serializer.Serializer) ConnectionOption {
	return func(c *Connection) {
		if s != nil {
			c.serializer = s
		}
	}
}

// WithConnectionTimeouts 设置读写超时，0 表示不限
func WithConnectionTimeouts(read, write time.Duration) ConnectionOption {
	return func(c *Connection) {
		c.readTimeout = read
		c.writeTimeout = write
	}
}

// WithSendQueueSize 设置发送队列长度
func WithSendQueueSize(n int) ConnectionOption {
	return func(c *Connection) {
		if n > 0 {
			c.sendChan = make(chan *Message, n)
		}
	}
}

// NewConnection 创建连接
func NewConnection(conn *websocket.Conn, opts ...ConnectionOption) *Connection {
	c := &Connection{
		id:           uuid.New().String(),
		conn:         conn,
		writeTimeout: 10 * time.Second,
		sendChan:     make(chan *Message, 256),
		closeChan:    make(chan struct{}),
		remoteAddr:   conn.RemoteAddr().String(),
		connectedAt:  time.Now(),
		logger:       logger.NewNoop(),
		serializer:   serializer.NewJSON(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Connection) ID() string             { return c.id }
func (c *Connection) RemoteAddr() string     { return c.remoteAddr }
func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }
func (c *Connection) IsClosed() bool         { return c.closed.Load() }

// Done 连接关闭后关闭
func (c *Connection) Done() <-chan struct{} {
	return c.closeChan
}

func (c *Connection) SetMetadata(key string, value interface{}) {
	c.metadata.Store(key, value)
}

func (c *Connection) GetMetadata(key string) (interface{}, bool) {
	return c.metadata.Load(key)
}

// Info 返回连接信息
func (c *Connection) Info() ConnectionInfo {
	state := StateConnected
	if c.IsClosed() {
		state = StateClosed
	}
	return ConnectionInfo{
		ID:          c.id,
		RemoteAddr:  c.remoteAddr,
		State:       state,
		ConnectedAt: c.connectedAt,
	}
}

// Emit 编码事件并放入发送队列，队列满时返回 ErrSendQueueFull
func (c *Connection) Emit(event string, data interface{}) (int, error) {
	msg, err := EncodeEnvelope(c.serializer, event, data)
	if err != nil {
		return 0, err
	}
	return len(msg.Data), c.Send(msg)
}

// Send 非阻塞入队
func (c *Connection) Send(msg *Message) error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}

	select {
	case c.sendChan <- msg:
		return nil
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
		return ErrSendQueueFull
	}
}

// ReadLoop 读取并解码事件帧，阻塞至连接结束，返回断开原因
func (c *Connection) ReadLoop(fn func(Envelope)) string {
	defer c.Close()

	for {
		if c.readTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return c.disconnectReason(err)
		}

		env, err := DecodeEnvelope(c.serializer, data)
		if err != nil {
			c.logger.Warn("websocket frame decode failed", "error", err, "conn_id", c.id)
			continue
		}
		if env.Event == "" {
			continue
		}
		fn(env)
	}
}

// disconnectReason 将读错误映射为断开原因
func (c *Connection) disconnectReason(err error) string {
	if r, ok := c.reason.Load().(string); ok && r != "" {
		return r
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		// 仅正常关闭视为对端主动断开，going away 等按传输断开处理
		if closeErr.Code == websocket.CloseNormalClosure {
			return ReasonServerDisconnect
		}
		return ReasonTransportClose
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonPingTimeout
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return ReasonTransportClose
	}

	c.logger.Debug("websocket read error", "error", err, "conn_id", c.id)
	return ReasonTransportError
}

// WriteLoop 发送循环，阻塞至连接关闭或写失败
func (c *Connection) WriteLoop() {
	for {
		select {
		case msg := <-c.sendChan:
			if c.writeTimeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			}
			if err := c.conn.WriteMessage(int(msg.Type), msg.Data); err != nil {
				c.logger.Debug("websocket write error", "error", err, "conn_id", c.id)
				c.Abort(ReasonTransportError)
				return
			}

		case <-c.closeChan:
			return
		}
	}
}

// Ping 发送协议层 ping
func (c *Connection) Ping() error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// SetPongHandler 收到 pong 时同时延长读超时
func (c *Connection) SetPongHandler(h func()) {
	c.conn.SetPongHandler(func(string) error {
		if c.readTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		if h != nil {
			h()
		}
		return nil
	})
}

// SetReadLimit 设置单帧大小上限
func (c *Connection) SetReadLimit(limit int64) {
	c.conn.SetReadLimit(limit)
}

// Close 发送正常关闭帧并关闭连接
func (c *Connection) Close() error {
	return c.Disconnect(websocket.CloseNormalClosure, "")
}

// Disconnect 以指定关闭码关闭，对端据此判断是否为主动断开
func (c *Connection) Disconnect(code int, text string) error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeChan)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, text),
			time.Now().Add(time.Second),
		)
		err = c.conn.Close()
	})
	return err
}

// Abort 不发送关闭帧直接断开，ReadLoop 返回 reason
func (c *Connection) Abort(reason string) {
	c.reason.CompareAndSwap(nil, reason)
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeChan)
		_ = c.conn.Close()
	})
}

// MarkLocalClose 标记本地主动关闭，之后的 ReadLoop 返回 io client disconnect
func (c *Connection) MarkLocalClose() {
	c.reason.CompareAndSwap(nil, ReasonClientDisconnect)
}
