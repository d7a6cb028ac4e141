package app

import (
	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/logger"
)

// DefaultSensitiveKeys 始终脱敏的日志字段
var DefaultSensitiveKeys = []string{"token", "authorization", "secret_key"}

// NewLogger 创建主日志，并追加默认脱敏字段
func NewLogger(cfg *logger.Config, opts ...logger.Option) (*logger.BaseLogger, error) {
	c := *cfg
	c.SensitiveKeys = append(append([]string{}, DefaultSensitiveKeys...), cfg.SensitiveKeys...)
	return logger.New(&c, opts...)
}

// WatchLogLevel 配置文件中 key 对应的日志段变化时同步日志等级
func WatchLogLevel(mgr config.Manager, key string, l *logger.BaseLogger) (*config.Watcher[logger.Config], error) {
	w, err := config.NewWatcher[logger.Config](mgr, key, func(err error) {
		l.Warn("log config reload failed", "error", err)
	})
	if err != nil {
		return nil, err
	}

	w.OnChange(func(cfg *logger.Config) {
		if cfg.Level == "" || cfg.Level == l.GetLevel() {
			return
		}
		prev := l.GetLevel()
		if err := l.SetLevel(cfg.Level); err != nil {
			l.Warn("log level not applied", "level", cfg.Level, "error", err)
			return
		}
		l.Info("log level changed", "from", prev, "to", cfg.Level)
	})
	return w, nil
}
