package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/lendhub/pkg/logger"
)

const defaultStopTimeout = 30 * time.Second

type options struct {
	name        string
	instance    string
	stopTimeout time.Duration
	logger      logger.Logger
}

// Option BaseApp 选项
type Option func(*options)

func defaultOptions() options {
	return options{
		name:        GetInfo().AppName,
		instance:    uuid.NewString(),
		stopTimeout: defaultStopTimeout,
		logger:      logger.Default(),
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName 日志名与启动日志中的应用名
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithStopTimeout Server 全部停止的等待上限，超时后直接执行 Closer
func WithStopTimeout(t time.Duration) Option {
	return func(o *options) {
		if t > 0 {
			o.stopTimeout = t
		}
	}
}
