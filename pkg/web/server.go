package web

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
	"github.com/lk2023060901/lendhub/pkg/web/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Server Web 服务核心结构
type Server struct {
	engine *gin.Engine
	config *Config
	logger logger.Logger

	mu      sync.Mutex
	server  *http.Server
	started bool
}

// Option Server 配置选项
type Option func(*serverOptions)

type serverOptions struct {
	registerer prometheus.Registerer
	namespace  string
}

// WithMetricsRegisterer 启用 HTTP 指标并注册到 registerer
func WithMetricsRegisterer(namespace string, registerer prometheus.Registerer) Option {
	return func(o *serverOptions) {
		o.namespace = namespace
		o.registerer = registerer
	}
}

// NewServer 创建 Web 服务
func NewServer(cfg *Config, l logger.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Addr == "" {
		return nil, errors.Wrap(ErrInvalidConfig, "addr is required")
	}
	if cfg.EnableTLS && (cfg.CertFile == "" || cfg.KeyFile == "") {
		return nil, errors.Wrap(ErrInvalidConfig, "cert_file and key_file are required when tls is enabled")
	}
	if l == nil {
		l = logger.Default()
	}
	o := &serverOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	registerJSONTagNames()

	engine := gin.New()
	engine.Use(middleware.Recovery(l.Named("web.recovery")))
	engine.Use(middleware.Logger(l.Named("web.access")))
	engine.Use(middleware.CORS(cfg.AllowOrigins...))
	if o.registerer != nil {
		engine.Use(middleware.Metrics(middleware.NewHTTPMetrics(o.namespace, o.registerer)))
	}

	return &Server{
		engine: engine,
		config: cfg,
		logger: l.Named("web.server"),
	}, nil
}

// Router 返回 Gin 引擎，用于注册路由
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler 返回 http.Handler 接口
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 监听 Config.Addr 并阻塞至 ctx 结束
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.config.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve 在给定 listener 上提供服务，ctx 结束后优雅关闭
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerAlreadyStarted
	}
	s.started = true
	s.server = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	srv := s.server
	s.mu.Unlock()

	serving := conc.Go(func() (struct{}, error) {
		var err error
		if s.config.EnableTLS {
			s.logger.Info("starting https server", "addr", ln.Addr().String())
			err = srv.ServeTLS(ln, s.config.CertFile, s.config.KeyFile)
		} else {
			s.logger.Info("starting http server", "addr", ln.Addr().String())
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return struct{}{}, err
	})

	select {
	case <-serving.Inner():
		if err := serving.Err(); err != nil {
			return errors.Wrap(err, "http server stopped")
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	if _, err := serving.Await(); err != nil {
		return err
	}
	s.logger.Info("http server exited")
	return nil
}
