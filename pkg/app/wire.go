package app

import (
	"github.com/google/wire"
)

// Components Wire 收集的应用组件
type Components struct {
	Servers []Server
	Closers []Closer
}

// ProviderSet 导出给 Wire 使用
var ProviderSet = wire.NewSet(
	NewBaseApp,
)

// InitApp 将 Wire 注入的组件绑定到 BaseApp
func InitApp(app *BaseApp, comps Components) Application {
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// CloserFunc 函数形式的 Closer
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

// ServerFuncs 由启动、停止函数组成的 Server
type ServerFuncs struct {
	StartFunc func() error
	StopFunc  func() error
}

func (s ServerFuncs) Start() error {
	if s.StartFunc == nil {
		return nil
	}
	return s.StartFunc()
}

func (s ServerFuncs) Stop() error {
	if s.StopFunc == nil {
		return nil
	}
	return s.StopFunc()
}
