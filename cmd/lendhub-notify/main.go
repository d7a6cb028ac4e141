package main

import (
	"context"

	"github.com/lk2023060901/lendhub/pkg/app"
	"github.com/lk2023060901/lendhub/pkg/badge"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/notify/feishu"
	"github.com/lk2023060901/lendhub/pkg/prometheus"
	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/lk2023060901/lendhub/pkg/security"
	"github.com/lk2023060901/lendhub/pkg/sentry"
	"github.com/spf13/pflag"
)

// Config 定义通知客户端的完整配置结构
type Config struct {
	Log logger.Config `mapstructure:"log"`

	// Prometheus 配置
	Prometheus prometheus.Config `mapstructure:"prometheus"`

	// 错误上报，dsn 为空时关闭
	Sentry sentry.Config `mapstructure:"sentry"`

	// 实时通道配置
	Realtime realtime.Config `mapstructure:"realtime"`

	// 徽标 REST 刷新配置
	Badge badge.RefresherConfig `mapstructure:"badge"`

	// 会话 token，可由 LENDHUB_TOKEN 或 --token 覆盖
	Token string `mapstructure:"token"`

	// 本地签发 token，token 为空时使用
	DevToken DevTokenConfig `mapstructure:"dev_token"`

	// 通知转发，webhook_url 为空时关闭
	Forward ForwardConfig `mapstructure:"forward"`
}

// ForwardConfig 通知转发渠道
type ForwardConfig struct {
	Feishu feishu.Config `mapstructure:"feishu"`
}

// DevTokenConfig 联调用的本地 token 签发配置，需与后端 JWT 配置一致
type DevTokenConfig struct {
	UserID string             `mapstructure:"user_id"`
	Role   string             `mapstructure:"role"`
	JWT    security.JWTConfig `mapstructure:"jwt"`
}

var tokenFlag = pflag.StringP("token", "t", "", "session token")

func main() {
	var cfg Config

	// 1. 加载配置
	mgr, err := app.LoadConfig(&cfg)
	if err != nil {
		panic(err)
	}
	if *tokenFlag != "" {
		cfg.Token = *tokenFlag
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

	// 3. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(&cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		return
	}
	defer cleanup()

	// 4. 运行直到收到退出信号
	if err := application.Run(context.Background()); err != nil {
		l.Error("application exited with error", "error", err)
	}
}
