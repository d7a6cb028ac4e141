package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client 进程内唯一的指标注册表，realtime、websocket、notifier 的指标都注册到这里
type Client struct {
	config   *Config
	registry *prometheus.Registry
	logger   logger.Logger

	// 按名称去重
	counters   sync.Map // map[string]*prometheus.CounterVec
	gauges     sync.Map // map[string]*prometheus.GaugeVec
	histograms sync.Map // map[string]*prometheus.HistogramVec

	httpServer *http.Server
	listener   net.Listener
	serving    *conc.Future[struct{}]

	closed atomic.Bool
}

// Option 客户端选项
type Option func(*Client)

// WithLogger 设置日志记录器
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New 创建客户端，HTTP 服务启用时同步监听
func New(cfg *Config, opts ...Option) (*Client, error) {
	cfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:   cfg,
		registry: prometheus.NewRegistry(),
		logger:   logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.EnableGoCollector {
		c.registry.MustRegister(collectors.NewGoCollector())
	}
	if cfg.EnableProcessCollector {
		c.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
			Namespace: cfg.Namespace,
		}))
	}
	if cfg.EnableBuildInfoCollector {
		c.registry.MustRegister(collectors.NewBuildInfoCollector())
	}

	if cfg.HTTPServer.Enabled {
		if err := c.startHTTPServer(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Registry 获取底层 Registry，各模块的指标注册到这里
func (c *Client) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回 HTTP Handler（用于集成到现有 HTTP 服务器）
func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}

// Addr 指标服务实际监听地址，未启用时为空
func (c *Client) Addr() string {
	if c.listener == nil {
		return ""
	}
	return c.listener.Addr().String()
}

// startHTTPServer 启动独立的 HTTP 服务器，监听失败时同步返回
func (c *Client) startHTTPServer() error {
	ln, err := net.Listen("tcp", c.config.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("prometheus: listen %s: %w", c.config.HTTPServer.Addr, err)
	}
	c.listener = ln

	mux := http.NewServeMux()
	mux.Handle(c.config.HTTPServer.Path, c.Handler())

	c.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  c.config.HTTPServer.Timeout,
		WriteTimeout: c.config.HTTPServer.Timeout,
	}

	c.serving = conc.Go(func() (struct{}, error) {
		if err := c.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("prometheus http server error", "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	c.logger.Info("prometheus metrics exposed", "addr", ln.Addr().String(), "path", c.config.HTTPServer.Path)

	return nil
}

// Close 停止 HTTP 服务，重复调用返回 ErrClientClosed
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	if c.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	_, err := c.serving.Await()
	return err
}

func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
