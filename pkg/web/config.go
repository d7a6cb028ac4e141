package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Config Web 服务配置
type Config struct {
	Addr        string        `mapstructure:"addr" json:"addr" yaml:"addr"`
	Mode        string        `mapstructure:"mode" json:"mode" yaml:"mode" validate:"omitempty,oneof=debug release test"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	// WriteTimeout 对升级后的 WebSocket 连接同样生效，默认不设置
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
	EnableTLS       bool          `mapstructure:"enable_tls" json:"enable_tls" yaml:"enable_tls"`
	CertFile        string        `mapstructure:"cert_file" json:"cert_file" yaml:"cert_file"`
	KeyFile         string        `mapstructure:"key_file" json:"key_file" yaml:"key_file"`
	// AllowOrigins 为空时允许全部来源
	AllowOrigins []string `mapstructure:"allow_origins" json:"allow_origins" yaml:"allow_origins"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":3000",
		Mode:            gin.ReleaseMode,
		ReadTimeout:     15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}
