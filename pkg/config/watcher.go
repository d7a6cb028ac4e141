// pkg/config/watcher.go
package config

import (
	"sync"
)

// Watcher 配置热更新，每次文件变化重新解析 key 对应的配置段
type Watcher[T any] struct {
	mgr       Manager
	key       string
	mu        sync.RWMutex
	config    *T
	callbacks []func(*T)
	onError   func(error)
}

// NewWatcher 创建监听器，key 为空时解析整个文件
func NewWatcher[T any](mgr Manager, key string, onError func(error)) (*Watcher[T], error) {
	w := &Watcher[T]{
		mgr:     mgr,
		key:     key,
		onError: onError,
	}

	cfg, err := w.load()
	if err != nil {
		return nil, err
	}
	w.config = cfg

	if err := mgr.Watch(w.reload); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Watcher[T]) load() (*T, error) {
	var cfg T
	var err error
	if w.key == "" {
		err = w.mgr.Unmarshal(&cfg)
	} else {
		err = w.mgr.UnmarshalKey(w.key, &cfg)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (w *Watcher[T]) reload() {
	cfg, err := w.load()
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	w.config = cfg
	callbacks := make([]func(*T), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

// GetConfig 获取当前配置
func (w *Watcher[T]) GetConfig() *T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnChange 注册配置变化回调
func (w *Watcher[T]) OnChange(callback func(*T)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}
