// pkg/websocket/server.go
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/serializer"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
	"github.com/prometheus/client_golang/prometheus"
)

// 服务端视角的断开原因
const (
	ReasonClientNamespaceDisconnect = "client namespace disconnect"
	ReasonServerNamespaceDisconnect = "server namespace disconnect"
)

// ServerHandler 服务端事件处理
type ServerHandler interface {
	// OnOpen 升级完成后调用，返回错误时以 1008 关闭连接
	OnOpen(conn *Connection, r *http.Request) error
	// OnEvent 收到事件帧，在该连接的读协程中串行执行
	OnEvent(conn *Connection, env Envelope)
	// OnClose 连接结束
	OnClose(conn *Connection, reason string)
}

// Server 事件式 WebSocket 服务端
type Server struct {
	config   *ServerConfig
	upgrader *websocket.Upgrader
	logger   logger.Logger
	handler  ServerHandler

	serializer serializer.Serializer

	workerPool *conc.Pool[struct{}]

	metrics           *ServerMetrics
	metricsRegisterer prometheus.Registerer

	mu     sync.RWMutex
	conns  map[string]*Connection
	closed bool
	wg     sync.WaitGroup
}

// NewServer 创建服务端
func NewServer(cfg *ServerConfig, handler ServerHandler, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
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

	s := &Server{
		config:     cfg,
		logger:     logger.NewNoop(),
		handler:    handler,
		serializer: ser,
		conns:      make(map[string]*Connection),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = &websocket.Upgrader{
		ReadBufferSize:   cfg.ReadBufferSize,
		WriteBufferSize:  cfg.WriteBufferSize,
		HandshakeTimeout: cfg.HandshakeTimeout,
		CheckOrigin:      cfg.CheckOrigin,
	}

	// 未设置 CheckOrigin 时只接受无 Origin 的非浏览器客户端
	if s.upgrader.CheckOrigin == nil {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return r.Header.Get("Origin") == ""
		}
	}

	s.workerPool = conc.NewPool[struct{}](0)

	if s.metricsRegisterer != nil {
		s.metrics = NewServerMetrics(s.metricsRegisterer)
	}

	return s, nil
}

// ServeHTTP 升级并服务单个连接，阻塞至连接结束
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}
	if s.config.MaxConnections > 0 && len(s.conns) >= s.config.MaxConnections {
		s.mu.Unlock()
		s.metrics.onUpgradeError()
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.onUpgradeError()
		s.logger.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	conn := NewConnection(wsConn,
		WithConnectionLogger(s.logger),
		WithConnectionSerializer(s.serializer),
		WithConnectionTimeouts(s.config.PongTimeout, s.config.WriteTimeout),
		WithSendQueueSize(s.config.SendQueueSize),
	)
	conn.SetReadLimit(s.config.MaxMessageSize)
	conn.SetPongHandler(nil)

	s.mu.Lock()
	s.conns[conn.ID()] = conn
	s.mu.Unlock()
	s.metrics.onOpened()

	s.workerPool.Submit(func() (struct{}, error) {
		conn.WriteLoop()
		return struct{}{}, nil
	})
	if s.config.PingInterval > 0 {
		s.workerPool.Submit(func() (struct{}, error) {
			s.pingLoop(conn)
			return struct{}{}, nil
		})
	}

	if err := s.handler.OnOpen(conn, r); err != nil {
		s.logger.Info("websocket connection rejected", "error", err, "conn_id", conn.ID())
		conn.MarkLocalClose()
		_ = conn.Disconnect(websocket.ClosePolicyViolation, err.Error())
	}

	reason := conn.ReadLoop(func(env Envelope) {
		s.metrics.onReceived()
		s.handler.OnEvent(conn, env)
	})

	s.mu.Lock()
	delete(s.conns, conn.ID())
	s.mu.Unlock()
	s.metrics.onClosed()

	s.handler.OnClose(conn, serverReason(reason))
}

// serverReason 将客户端视角的原因转换为服务端视角
func serverReason(reason string) string {
	switch reason {
	case ReasonServerDisconnect:
		return ReasonClientNamespaceDisconnect
	case ReasonClientDisconnect:
		return ReasonServerNamespaceDisconnect
	default:
		return reason
	}
}

func (s *Server) pingLoop(conn *Connection) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				s.logger.Debug("websocket ping error", "error", err, "conn_id", conn.ID())
				return
			}
		case <-conn.Done():
			return
		}
	}
}

// Emit 向单个连接发送事件
func (s *Server) Emit(conn *Connection, event string, data interface{}) error {
	if _, err := conn.Emit(event, data); err != nil {
		return err
	}
	s.metrics.onSent(1)
	return nil
}

// Broadcast 向满足 filter 的连接广播事件，filter 为 nil 时发送给全部连接，返回成功入队数
func (s *Server) Broadcast(event string, data interface{}, filter func(*Connection) bool) (int, error) {
	msg, err := EncodeEnvelope(s.serializer, event, data)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, conn := range s.Connections() {
		if filter != nil && !filter(conn) {
			continue
		}
		if err := conn.Send(msg); err != nil {
			s.logger.Debug("broadcast send error", "error", err, "conn_id", conn.ID())
			continue
		}
		sent++
	}
	s.metrics.onSent(sent)
	return sent, nil
}

// Disconnect 服务端主动断开，客户端收到 io server disconnect
func (s *Server) Disconnect(conn *Connection, text string) error {
	conn.MarkLocalClose()
	return conn.Disconnect(websocket.CloseNormalClosure, text)
}

// Connections 当前连接快照
func (s *Server) Connections() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	return conns
}

// Count 当前连接数
func (s *Server) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Close 以 going away 关闭全部连接并等待处理结束
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	for _, conn := range s.Connections() {
		conn.MarkLocalClose()
		_ = conn.Disconnect(websocket.CloseGoingAway, "server shutdown")
	}

	done := conc.Go(func() (struct{}, error) {
		s.wg.Wait()
		return struct{}{}, nil
	})

	select {
	case <-done.Inner():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.workerPool.Release()
	return nil
}
