package main

import (
	"errors"

	"github.com/lk2023060901/lendhub/internal/notifier"
	"github.com/lk2023060901/lendhub/pkg/app"
	"github.com/lk2023060901/lendhub/pkg/badge"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"github.com/lk2023060901/lendhub/pkg/notify"
	"github.com/lk2023060901/lendhub/pkg/notify/feishu"
	"github.com/lk2023060901/lendhub/pkg/prometheus"
	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/lk2023060901/lendhub/pkg/security"
)

var errNoToken = errors.New("no session token: pass --token, set LENDHUB_TOKEN or configure dev_token.user_id")

func provideAppOptions(l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName("lendhub-notify"),
		app.WithLogger(l),
	}
}

// providePrometheus 提供 Prometheus 客户端
func providePrometheus(cfg *Config, l logger.Logger) (*prometheus.Client, error) {
	return prometheus.New(&cfg.Prometheus, prometheus.WithLogger(l))
}

// provideManager 提供连接管理器，并设置为进程级默认实例
func provideManager(cfg *Config, l logger.Logger, prom *prometheus.Client) (*realtime.Manager, error) {
	m, err := realtime.NewManager(&cfg.Realtime,
		realtime.WithLogger(l),
		realtime.WithMetricsRegisterer(prom.Registry()),
	)
	if err != nil {
		return nil, err
	}
	realtime.SetDefault(m)
	return m, nil
}

func provideStore(m *realtime.Manager, l logger.Logger) (*badge.Store, func()) {
	s := badge.NewStore(m, badge.WithStoreLogger(l))
	return s, s.Close
}

func provideRefresher(cfg *Config, l logger.Logger) (*badge.Refresher, error) {
	rc := cfg.Badge
	if rc.UserAgent == "" {
		rc.UserAgent = app.GetInfo().UserAgent()
	}
	return badge.NewRefresher(&rc, l)
}

// provideForwarder 未配置转发渠道时返回 nil
func provideForwarder(cfg *Config) (notify.Notifier, error) {
	if cfg.Forward.Feishu.WebhookURL == "" {
		return nil, nil
	}
	return feishu.NewAdapter(&cfg.Forward.Feishu)
}

// provideToken 配置中的 token 优先，否则按 dev_token 本地签发
func provideToken(cfg *Config, l logger.Logger) (notifier.Token, error) {
	if cfg.Token != "" {
		return notifier.Token(cfg.Token), nil
	}
	if cfg.DevToken.UserID == "" {
		return "", errNoToken
	}

	jm, err := security.NewJWTManager(&cfg.DevToken.JWT)
	if err != nil {
		return "", err
	}
	token, err := jm.Issue(cfg.DevToken.UserID, cfg.DevToken.Role, nil)
	if err != nil {
		return "", err
	}
	l.Warn("using locally issued dev token", "user_id", cfg.DevToken.UserID)
	return notifier.Token(token), nil
}

func provideAppComponents(n *notifier.Notifier, prom *prometheus.Client) app.Components {
	return app.Components{
		Servers: []app.Server{n},
		Closers: []app.Closer{
			prom,
			app.CloserFunc(func() error {
				realtime.Shutdown()
				return nil
			}),
		},
	}
}
