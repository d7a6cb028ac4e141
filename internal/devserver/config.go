package devserver

import (
	"time"

	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/lk2023060901/lendhub/pkg/security"
	"github.com/lk2023060901/lendhub/pkg/web"
	"github.com/lk2023060901/lendhub/pkg/websocket"
)

// Config 本地联调后端配置
type Config struct {
	Web    web.Config             `mapstructure:"web" json:"web" yaml:"web"`
	Socket websocket.ServerConfig `mapstructure:"socket" json:"socket" yaml:"socket"`
	JWT    security.JWTConfig     `mapstructure:"jwt" json:"jwt" yaml:"jwt"`

	SocketPath string `mapstructure:"socket_path" json:"socket_path" yaml:"socket_path" validate:"required,startswith=/"`
	// BroadcastInterval 周期推送徽标计数，0 表示关闭
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval" json:"broadcast_interval" yaml:"broadcast_interval" validate:"gte=0"`
	// DevRoutes 开启 /dev 调试接口
	DevRoutes bool `mapstructure:"dev_routes" json:"dev_routes" yaml:"dev_routes"`
	// DefaultCounts 未单独设置的用户使用的计数
	DefaultCounts realtime.BadgeCounts `mapstructure:"default_counts" json:"default_counts" yaml:"default_counts"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	jwt := security.DefaultJWTConfig()
	// 仅用于本地联调
	jwt.SecretKey = "lendhub-dev-secret"

	return &Config{
		Web:               *web.DefaultConfig(),
		Socket:            *websocket.DefaultServerConfig(),
		JWT:               *jwt,
		SocketPath:        "/socket",
		BroadcastInterval: 30 * time.Second,
	}
}
