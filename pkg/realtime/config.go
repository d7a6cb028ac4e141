// pkg/realtime/config.go
package realtime

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/websocket"
)

// Config 连接管理器配置
type Config struct {
	// URL 实时通道地址，非空时覆盖 Transport.URL
	URL string `mapstructure:"url" json:"url" yaml:"url" validate:"omitempty,wsurl"`

	// AuthTimeout 单次认证等待时长
	AuthTimeout time.Duration `mapstructure:"auth_timeout" json:"auth_timeout" yaml:"auth_timeout" validate:"gt=0"`

	// HeartbeatInterval 认证后 ping 间隔
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" json:"heartbeat_interval" yaml:"heartbeat_interval" validate:"gt=0"`

	// ManualReconnectReasons 传输层不会自动重连、需要管理器主动 Connect 的断开原因
	ManualReconnectReasons []string `mapstructure:"manual_reconnect_reasons" json:"manual_reconnect_reasons" yaml:"manual_reconnect_reasons"`

	Transport websocket.ClientConfig `mapstructure:"transport" json:"transport" yaml:"transport"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		AuthTimeout:            10 * time.Second,
		HeartbeatInterval:      30 * time.Second,
		ManualReconnectReasons: []string{websocket.ReasonServerDisconnect},
		Transport:              *websocket.DefaultClientConfig(),
	}
}

// Validate 校验配置并将 URL 应用到传输层配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(ErrInvalidConfig, "nil config")
	}
	if err := config.Validate(c); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	if c.URL != "" {
		c.Transport.URL = c.URL
	}
	if err := c.Transport.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "transport: %v", err)
	}
	return nil
}
