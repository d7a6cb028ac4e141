package app

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
)

var (
	ErrAppAlreadyRunning = errors.New("application is already running")
)

// Application 应用生命周期
type Application interface {
	Run(ctx context.Context) error
	Shutdown() error
	Logger() logger.Logger
}

// Server 随应用启动、停止的长期组件
type Server interface {
	Start() error
	Stop() error
}

// Closer 资源清理接口，在所有 Server 停止后逆序调用
type Closer interface {
	Close() error
}

// BaseApp 提供了 Application 接口的基础实现
type BaseApp struct {
	opts    options
	logger  logger.Logger
	servers []Server
	closers []Closer

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex

	started atomic.Bool
	closed  atomic.Bool
}

// NewBaseApp 创建 BaseApp
func NewBaseApp(opts ...Option) *BaseApp {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &BaseApp{
		opts:   o,
		logger: o.logger.Named(o.name),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Logger 应用主日志
func (a *BaseApp) Logger() logger.Logger {
	return a.logger
}

// Instance 本次进程的实例标识，用于关联日志
func (a *BaseApp) Instance() string {
	return a.opts.instance
}

// Run 启动全部 Server 并阻塞，收到 SIGINT/SIGTERM、ctx 结束或 Shutdown 后退出
func (a *BaseApp) Run(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAppAlreadyRunning
	}

	info := GetInfo()
	a.logger.Info("application starting",
		"name", a.opts.name,
		"version", info.Version,
		"commit", info.GitCommit,
		"build_date", info.BuildDate,
		"go_version", info.GoVersion,
		"instance", a.opts.instance,
	)

	a.mu.Lock()
	servers := append([]Server(nil), a.servers...)
	a.mu.Unlock()

	for i, srv := range servers {
		if err := srv.Start(); err != nil {
			a.logger.Error("failed to start server", "index", i, "error", err)
			_ = a.Shutdown()
			return err
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		a.logger.Info("received stop signal, shutting down")
	case <-a.ctx.Done():
		a.logger.Info("shutdown requested")
	}

	return a.Shutdown()
}

// Shutdown 停止全部 Server 并逆序关闭 Closer，重复调用为空操作
func (a *BaseApp) Shutdown() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	a.cancel()

	a.mu.Lock()
	servers := append([]Server(nil), a.servers...)
	closers := append([]Closer(nil), a.closers...)
	a.mu.Unlock()

	a.logger.Info("application shutting down")

	futures := make([]*conc.Future[struct{}], 0, len(servers))
	for _, srv := range servers {
		s := srv
		futures = append(futures, conc.Go(func() (struct{}, error) {
			return struct{}{}, s.Stop()
		}))
	}
	stopped := conc.Go(func() (struct{}, error) {
		return struct{}{}, conc.AwaitAll(futures...)
	})

	var firstErr error
	select {
	case <-stopped.Inner():
		if err := stopped.Err(); err != nil {
			a.logger.Error("failed to stop server", "error", err)
			firstErr = err
		}
	case <-time.After(a.opts.stopTimeout):
		a.logger.Warn("shutdown timeout, forcing exit", "timeout", a.opts.stopTimeout)
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			a.logger.Error("failed to close component", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.logger.Info("application exited")
	_ = a.logger.Sync()
	return firstErr
}

// AppendServer 添加服务器
func (a *BaseApp) AppendServer(srv ...Server) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.servers = append(a.servers, srv...)
}

// AppendCloser 添加资源清理组件
func (a *BaseApp) AppendCloser(closer ...Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, closer...)
}
