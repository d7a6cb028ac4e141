//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/lk2023060901/lendhub/internal/notifier"
	"github.com/lk2023060901/lendhub/pkg/app"
	"github.com/lk2023060901/lendhub/pkg/logger"
)

func InitApp(cfg *Config, l logger.Logger) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		provideAppOptions,
		app.ProviderSet,

		// 2. Prometheus 客户端
		providePrometheus,

		// 3. 连接管理器
		provideManager,

		// 4. 徽标存储与 REST 刷新
		provideStore,
		provideRefresher,

		// 5. 通知转发
		provideForwarder,

		// 6. 会话凭证
		provideToken,

		// 7. 通知器
		notifier.New,

		// 8. 组装
		provideAppComponents,
		app.InitApp,
	))
}
