package sentry

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/lendhub/pkg/logger"
	"go.uber.org/zap/zapcore"
)

// Config Sentry 配置，DSN 为空表示不上报
type Config struct {
	DSN         string `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
	Environment string `mapstructure:"environment" json:"environment" yaml:"environment"`
	Release     string `mapstructure:"release" json:"release" yaml:"release"`
	ServerName  string `mapstructure:"server_name" json:"server_name" yaml:"server_name"`

	// 错误采样率 (0.0-1.0)
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate" yaml:"sample_rate" validate:"gte=0,lte=1"`

	AttachStacktrace bool `mapstructure:"attach_stacktrace" json:"attach_stacktrace" yaml:"attach_stacktrace"`
	MaxBreadcrumbs   int  `mapstructure:"max_breadcrumbs" json:"max_breadcrumbs" yaml:"max_breadcrumbs" validate:"gte=0"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MinLevel 日志钩子上报的最低级别
	MinLevel logger.Level `mapstructure:"min_level" json:"min_level" yaml:"min_level" validate:"omitempty,oneof=debug info warn error"`

	Debug bool              `mapstructure:"debug" json:"debug" yaml:"debug"`
	Tags  map[string]string `mapstructure:"tags" json:"tags" yaml:"tags"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Environment:      "production",
		SampleRate:       1.0,
		AttachStacktrace: true,
		MaxBreadcrumbs:   100,
		ShutdownTimeout:  2 * time.Second,
		MinLevel:         logger.ErrorLevel,
	}
}

// Enabled 是否配置了 DSN
func (c *Config) Enabled() bool {
	return c != nil && c.DSN != ""
}

func (c *Config) minLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(string(c.MinLevel))
	if err != nil {
		return zapcore.ErrorLevel
	}
	return lvl
}

func (c *Config) toClientOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              c.DSN,
		Environment:      c.Environment,
		Release:          c.Release,
		ServerName:       c.ServerName,
		SampleRate:       c.SampleRate,
		AttachStacktrace: c.AttachStacktrace,
		MaxBreadcrumbs:   c.MaxBreadcrumbs,
		Debug:            c.Debug,
	}
}
