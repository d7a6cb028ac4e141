package main

import (
	"context"
	"net"

	"github.com/lk2023060901/lendhub/internal/devserver"
	"github.com/lk2023060901/lendhub/pkg/app"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/prometheus"
	"github.com/lk2023060901/lendhub/pkg/sentry"
	"github.com/lk2023060901/lendhub/pkg/util/conc"
)

// Config 联调后端完整配置
type Config struct {
	Log logger.Config `mapstructure:"log"`

	// Prometheus 配置
	Prometheus prometheus.Config `mapstructure:"prometheus"`

	// 错误上报，dsn 为空时关闭
	Sentry sentry.Config `mapstructure:"sentry"`

	// 后端配置：HTTP、WebSocket、JWT
	Devserver devserver.Config `mapstructure:"devserver"`
}

func main() {
	var cfg Config

	// 1. 加载配置
	mgr, err := app.LoadConfig(&cfg)
	if err != nil {
		panic(err)
	}

	// 2. 错误上报与主日志
	var logOpts []logger.Option
	if cfg.Sentry.Enabled() {
		if cfg.Sentry.Release == "" {
			cfg.Sentry.Release = app.GetInfo().Release()
		}
		reporter, err := sentry.New(&cfg.Sentry)
		if err != nil {
			panic(err)
		}
		defer reporter.Close()
		logOpts = append(logOpts, logger.WithHooks(reporter.LoggerHook()))
	}

	l, err := app.NewLogger(&cfg.Log, logOpts...)
	if err != nil {
		panic(err)
	}
	defer l.Sync()

	if _, err := app.WatchLogLevel(mgr, "log", l); err != nil {
		l.Warn("log level watch disabled", "error", err)
	}

	// 3. Prometheus 客户端
	promClient, err := prometheus.New(&cfg.Prometheus, prometheus.WithLogger(l))
	if err != nil {
		l.Error("failed to create prometheus client", "error", err)
		return
	}

	// 4. 联调后端
	srv, err := devserver.New(&cfg.Devserver,
		devserver.WithLogger(l),
		devserver.WithMetricsRegisterer(promClient.Registry()),
	)
	if err != nil {
		l.Error("failed to create devserver", "error", err)
		_ = promClient.Close()
		return
	}

	// 5. 组装并运行
	runner := &serveRunner{srv: srv, addr: cfg.Devserver.Web.Addr, logger: l}
	application := app.InitApp(
		app.NewBaseApp(app.WithName("lendhub-devserver"), app.WithLogger(l)),
		app.Components{
			Servers: []app.Server{runner},
			Closers: []app.Closer{promClient},
		},
	)

	if err := application.Run(context.Background()); err != nil {
		l.Error("application exited with error", "error", err)
	}
}

// serveRunner 将阻塞的 Serve 包装为 app.Server
type serveRunner struct {
	srv    *devserver.Server
	addr   string
	logger logger.Logger

	cancel  context.CancelFunc
	serving *conc.Future[struct{}]
}

func (r *serveRunner) Start() error {
	addr := r.addr
	if addr == "" {
		addr = devserver.DefaultConfig().Web.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.serving = conc.Go(func() (struct{}, error) {
		return struct{}{}, r.srv.Serve(ctx, ln)
	})
	r.logger.Info("devserver listening", "addr", ln.Addr().String())
	return nil
}

func (r *serveRunner) Stop() error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	_, err := r.serving.Await()
	return err
}
