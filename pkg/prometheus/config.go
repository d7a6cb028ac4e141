package prometheus

import (
	"fmt"
	"time"

	"github.com/lk2023060901/lendhub/pkg/config"
)

// Config 指标注册表与 /metrics 暴露
type Config struct {
	// Namespace 指标前缀，例如 lendhub_notify
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace" validate:"required"`
	Subsystem string `mapstructure:"subsystem" json:"subsystem" yaml:"subsystem"`

	// ConstLabels 附加到通过 Client 创建的每个指标上，例如 {"service": "lendhub-notify"}
	ConstLabels map[string]string `mapstructure:"const_labels" json:"const_labels" yaml:"const_labels"`

	HTTPServer HTTPServerConfig `mapstructure:"http_server" json:"http_server" yaml:"http_server"`

	EnableGoCollector        bool `mapstructure:"enable_go_collector" json:"enable_go_collector" yaml:"enable_go_collector"`
	EnableProcessCollector   bool `mapstructure:"enable_process_collector" json:"enable_process_collector" yaml:"enable_process_collector"`
	EnableBuildInfoCollector bool `mapstructure:"enable_build_info_collector" json:"enable_build_info_collector" yaml:"enable_build_info_collector"`
}

// HTTPServerConfig 独立的指标 HTTP 服务
type HTTPServerConfig struct {
	Enabled bool          `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Addr    string        `mapstructure:"addr" json:"addr" yaml:"addr" validate:"required_if=Enabled true"`
	Path    string        `mapstructure:"path" json:"path" yaml:"path"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gte=0"`
}

const (
	defaultMetricsPath = "/metrics"
	defaultHTTPTimeout = 10 * time.Second
)

// DefaultConfig 默认不启动 HTTP 服务
func DefaultConfig() *Config {
	return &Config{
		Namespace: "lendhub",
		HTTPServer: HTTPServerConfig{
			Addr:    ":9090",
			Path:    defaultMetricsPath,
			Timeout: defaultHTTPTimeout,
		},
	}
}

// Validate 校验并补全 HTTP 默认值
func (c *Config) Validate() error {
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.HTTPServer.Path == "" {
		c.HTTPServer.Path = defaultMetricsPath
	}
	if c.HTTPServer.Timeout == 0 {
		c.HTTPServer.Timeout = defaultHTTPTimeout
	}
	return nil
}
