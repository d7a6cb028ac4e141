package config

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，LENDHUB_REALTIME_AUTH_TIMEOUT 对应 realtime.auth_timeout
const EnvPrefix = "LENDHUB"

// Manager 单个配置文件叠加环境变量
type Manager interface {
	LoadFile(path string) error
	// Path 最近一次成功加载的文件
	Path() string
	BindEnv(prefix string)
	Unmarshal(v any) error
	// UnmarshalKey 按配置段解析，例如 "realtime" 或 "realtime.transport"
	UnmarshalKey(key string, v any) error
	IsSet(key string) bool
	// Watch 文件重新读取后回调
	Watch(callback func()) error
}

type manager struct {
	v         *viper.Viper
	envPrefix string

	mu        sync.RWMutex
	path      string
	callbacks []func()
	watching  bool
}

// NewManager 创建配置管理器
func NewManager(opts ...Option) Manager {
	m := &manager{v: viper.New()}
	for _, opt := range opts {
		opt(m)
	}
	if m.envPrefix != "" {
		bindEnv(m.v, m.envPrefix)
	}
	return m
}

// decodeHook 环境变量只能给出字符串，时长与列表需要在解码时转换
// LENDHUB_REALTIME_MANUAL_RECONNECT_REASONS="io server disconnect,kicked"
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

func bindEnv(v *viper.Viper, prefix string) {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func (m *manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	m.path = path
	return nil
}

func (m *manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

func (m *manager) BindEnv(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envPrefix = prefix
	bindEnv(m.v, prefix)
}

func (m *manager) Unmarshal(v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.Unmarshal(v, viper.DecodeHook(decodeHook())); err != nil {
		return errors.Wrap(err, "unmarshal config")
	}
	return nil
}

// UnmarshalKey 从 AllSettings 取配置段，viper.UnmarshalKey 只读文件里的子树，环境变量不生效
func (m *manager) UnmarshalKey(key string, v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decodeHook(),
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return errors.Wrapf(err, "unmarshal config section %q", key)
	}
	if err := dec.Decode(section(m.v.AllSettings(), key)); err != nil {
		return errors.Wrapf(err, "unmarshal config section %q", key)
	}
	return nil
}

// section 按点分路径取子树，不存在时返回 nil
func section(settings map[string]any, key string) any {
	var cur any = settings
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[part]; !ok {
			return nil
		}
	}
	return cur
}

func (m *manager) IsSet(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.IsSet(key)
}

func (m *manager) Watch(callback func()) error {
	m.mu.Lock()
	if m.path == "" {
		m.mu.Unlock()
		return errors.New("watch config: no file loaded")
	}
	m.callbacks = append(m.callbacks, callback)
	start := !m.watching
	m.watching = true
	m.mu.Unlock()

	if !start {
		return nil
	}

	m.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		m.mu.RLock()
		callbacks := append([]func(){}, m.callbacks...)
		m.mu.RUnlock()

		for _, cb := range callbacks {
			cb()
		}
	})
	m.v.WatchConfig()
	return nil
}
