package devserver

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/lk2023060901/lendhub/pkg/security"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
	"github.com/lk2023060901/lendhub/pkg/web"
	"github.com/lk2023060901/lendhub/pkg/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrInvalidConfig 无效配置
var ErrInvalidConfig = errors.New("devserver: invalid config")

// Server 本地联调后端：REST + 实时推送
type Server struct {
	cfg    *Config
	logger logger.Logger
	jwt    *security.JWTManager
	web    *web.Server
	socket *websocket.Server
	counts *countsBook
}

// Option 配置选项
type Option func(*options)

type options struct {
	logger     logger.Logger
	registerer prometheus.Registerer
}

// WithLogger 设置日志记录器
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsRegisterer 注册 HTTP 与 WebSocket 指标
func WithMetricsRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// New 创建后端
func New(cfg *Config, opts ...Option) (*Server, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(merged); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "%v", err)
	}

	o := &options{logger: logger.NewNoop()}
	for _, opt := range opts {
		opt(o)
	}

	jm, err := security.NewJWTManager(&merged.JWT)
	if err != nil {
		return nil, errors.Wrap(err, "create jwt manager")
	}

	var webOpts []web.Option
	socketOpts := []websocket.ServerOption{
		websocket.WithServerLogger(o.logger.Named("socket")),
		websocket.WithAllowedOrigins(merged.Web.AllowOrigins...),
	}
	if o.registerer != nil {
		webOpts = append(webOpts, web.WithMetricsRegisterer("lendhub_devserver", o.registerer))
		socketOpts = append(socketOpts, websocket.WithServerMetricsRegisterer(o.registerer))
	}

	webServer, err := web.NewServer(&merged.Web, o.logger, webOpts...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    merged,
		logger: o.logger.Named("devserver"),
		jwt:    jm,
		web:    webServer,
		counts: newCountsBook(merged.DefaultCounts),
	}

	s.socket, err = websocket.NewServer(&merged.Socket, &socketHandler{s: s}, socketOpts...)
	if err != nil {
		return nil, err
	}

	s.routes()
	return s, nil
}

// JWT 返回签发与校验令牌的管理器
func (s *Server) JWT() *security.JWTManager {
	return s.jwt
}

// Web 返回 HTTP 服务
func (s *Server) Web() *web.Server {
	return s.web
}

// Run 监听配置地址，阻塞至 ctx 结束
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Web.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.cfg.Web.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve 在 ln 上提供服务并周期推送计数，ctx 结束后关闭全部会话
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	broadcaster := conc.Go(func() (struct{}, error) {
		s.broadcastLoop(ctx)
		return struct{}{}, nil
	})

	err := s.web.Serve(ctx, ln)
	cancel()
	broadcaster.Await()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if cerr := s.socket.Close(closeCtx); cerr != nil {
		s.logger.Warn("devserver socket close failed", "error", cerr)
	}
	return err
}

func (s *Server) broadcastLoop(ctx context.Context) {
	if s.cfg.BroadcastInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.BroadcastCounts(); n > 0 {
				s.logger.Debug("devserver badge counts broadcast", "sessions", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SetCounts 更新用户计数并推送给其在线会话
func (s *Server) SetCounts(userID string, counts realtime.BadgeCounts) int {
	s.counts.set(userID, counts)
	return s.EmitToUser(userID, realtime.EventBadgeCountUpdated, counts)
}

// BroadcastCounts 向全部已认证会话推送各自的计数
func (s *Server) BroadcastCounts() int {
	sent := 0
	for _, conn := range s.socket.Connections() {
		userID, ok := sessionUser(conn)
		if !ok {
			continue
		}
		if err := s.socket.Emit(conn, realtime.EventBadgeCountUpdated, s.counts.get(userID)); err != nil {
			s.logger.Debug("devserver broadcast failed", "conn_id", conn.ID(), "error", err)
			continue
		}
		sent++
	}
	return sent
}

// EmitToUser 向用户的已认证会话发送事件，返回成功数
func (s *Server) EmitToUser(userID, event string, data interface{}) int {
	sent := 0
	for _, conn := range s.socket.Connections() {
		if id, ok := sessionUser(conn); !ok || id != userID {
			continue
		}
		if err := s.socket.Emit(conn, event, data); err != nil {
			s.logger.Debug("devserver emit failed", "conn_id", conn.ID(), "event", event, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// Kick 以正常关闭帧断开会话，userID 为空时断开全部
func (s *Server) Kick(userID, reason string) int {
	if reason == "" {
		reason = "kicked"
	}
	kicked := 0
	for _, conn := range s.socket.Connections() {
		if userID != "" {
			if id, _ := sessionUser(conn); id != userID {
				continue
			}
		}
		if err := s.socket.Disconnect(conn, reason); err != nil {
			s.logger.Debug("devserver kick failed", "conn_id", conn.ID(), "error", err)
			continue
		}
		kicked++
	}
	s.logger.Info("devserver sessions kicked", "user_id", userID, "count", kicked, "reason", reason)
	return kicked
}

// Sessions 当前会话数
func (s *Server) Sessions() int {
	return s.socket.Count()
}
