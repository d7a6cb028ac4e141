package feishu

import (
	"fmt"
	"time"

	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/lk2023060901/lendhub/pkg/notify"
)

// Config 飞书群机器人配置
type Config struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url" yaml:"webhook_url" validate:"required,url"`

	// Secret 签名校验密钥，为空时不签名
	Secret string `mapstructure:"secret" json:"secret" yaml:"secret"`

	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("%w: %v", notify.ErrInvalidConfig, err)
	}
	return nil
}
