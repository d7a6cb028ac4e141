package config

import "github.com/spf13/viper"

// Option 配置选项函数
type Option func(*manager)

// WithDefaults 设置默认值，key 使用点分路径，例如 "realtime.auth_timeout"
func WithDefaults(defaults map[string]any) Option {
	return func(m *manager) {
		for key, value := range defaults {
			m.v.SetDefault(key, value)
		}
	}
}

// WithEnvPrefix 开启环境变量覆盖
func WithEnvPrefix(prefix string) Option {
	return func(m *manager) {
		m.envPrefix = prefix
	}
}

// WithViper 使用外部 Viper 实例，例如已绑定 pflag 的实例
func WithViper(v *viper.Viper) Option {
	return func(m *manager) {
		if v != nil {
			m.v = v
		}
	}
}
