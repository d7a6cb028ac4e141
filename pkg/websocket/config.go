// pkg/websocket/config.go
package websocket

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ================================
// TLS 配置
// ================================

// TLSConfig TLS 配置
type TLSConfig struct {
	CertFile string `mapstructure:"cert_file" json:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" json:"key_file" yaml:"key_file"`
	// InsecureSkipVerify 跳过证书验证（仅用于测试）
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	// MinVersion "1.2" 或 "1.3"
	MinVersion string `mapstructure:"min_version" json:"min_version" yaml:"min_version"`
}

// Validate 验证 TLS 配置，证书与私钥必须成对出现
func (c *TLSConfig) Validate() error {
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("%w: cert_file and key_file must be set together", ErrTLSConfigInvalid)
	}
	switch c.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("%w: invalid min_version %s", ErrTLSConfigInvalid, c.MinVersion)
	}
	return nil
}

// BuildTLSConfig 构建 tls.Config，客户端无证书时只设置校验选项
func (c *TLSConfig) BuildTLSConfig() (*tls.Config, error) {
	if c == nil {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
	if c.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	if c.CertFile != "" && c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load certificate: %v", ErrTLSConfigInvalid, err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// ================================
// 传输层 keepalive 配置
// ================================

// KeepaliveConfig 协议层 ping/pong 配置，与业务层心跳无关
type KeepaliveConfig struct {
	Enable   bool          `mapstructure:"enable" json:"enable" yaml:"enable"`
	Interval time.Duration `mapstructure:"interval" json:"interval" yaml:"interval"`
	// Timeout 超过该时长未收到 pong 视为 ping timeout
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// DefaultKeepaliveConfig 返回默认 keepalive 配置
func DefaultKeepaliveConfig() KeepaliveConfig {
	return KeepaliveConfig{
		Enable:   true,
		Interval: 25 * time.Second,
		Timeout:  60 * time.Second,
	}
}

// ================================
// 重连配置
// ================================

// ReconnectConfig 重连配置
type ReconnectConfig struct {
	Enable bool `mapstructure:"enable" json:"enable" yaml:"enable"`
	// MaxRetries 最大重试次数（0 = 无限重试）
	MaxRetries   int           `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`
	InitialDelay time.Duration `mapstructure:"initial_delay" json:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay" json:"max_delay" yaml:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier" json:"multiplier" yaml:"multiplier"`
	// RandomFactor 随机因子（0-1）
	RandomFactor float64 `mapstructure:"random_factor" json:"random_factor" yaml:"random_factor"`
}

// DefaultReconnectConfig 返回默认重连配置
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Enable:       true,
		MaxRetries:   0,
		InitialDelay: 1 * time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		RandomFactor: 0.5,
	}
}

// ================================
// 服务端配置
// ================================

// ServerConfig 服务端配置
type ServerConfig struct {
	ReadBufferSize  int   `mapstructure:"read_buffer_size" json:"read_buffer_size" yaml:"read_buffer_size"`
	WriteBufferSize int   `mapstructure:"write_buffer_size" json:"write_buffer_size" yaml:"write_buffer_size"`
	MaxMessageSize  int64 `mapstructure:"max_message_size" json:"max_message_size" yaml:"max_message_size"`

	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" json:"handshake_timeout" yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	PongTimeout      time.Duration `mapstructure:"pong_timeout" json:"pong_timeout" yaml:"pong_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval" json:"ping_interval" yaml:"ping_interval"`

	// MaxConnections 最大连接数（0 = 不限）
	MaxConnections int `mapstructure:"max_connections" json:"max_connections" yaml:"max_connections"`

	// Codec json 或 msgpack
	Codec         string `mapstructure:"codec" json:"codec" yaml:"codec"`
	SendQueueSize int    `mapstructure:"send_queue_size" json:"send_queue_size" yaml:"send_queue_size"`

	// 跨域配置（运行时设置，不序列化）
	CheckOrigin func(r *http.Request) bool `mapstructure:"-" json:"-" yaml:"-"`
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		MaxMessageSize:   512 * 1024,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PongTimeout:      60 * time.Second,
		PingInterval:     25 * time.Second,
		MaxConnections:   1000,
		Codec:            "json",
		SendQueueSize:    256,
	}
}

// Validate 验证服务端配置并补全默认值
func (c *ServerConfig) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 4096
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = 4096
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 512 * 1024
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return nil
}

// ================================
// 客户端配置
// ================================

// ClientConfig 客户端配置
type ClientConfig struct {
	// URL "ws://host:port/path" 或 "wss://..."
	URL string `mapstructure:"url" json:"url" yaml:"url"`

	ReadBufferSize  int `mapstructure:"read_buffer_size" json:"read_buffer_size" yaml:"read_buffer_size"`
	WriteBufferSize int `mapstructure:"write_buffer_size" json:"write_buffer_size" yaml:"write_buffer_size"`

	DialTimeout  time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`

	Keepalive KeepaliveConfig `mapstructure:"keepalive" json:"keepalive" yaml:"keepalive"`
	Reconnect ReconnectConfig `mapstructure:"reconnect" json:"reconnect" yaml:"reconnect"`

	EnableCompression bool       `mapstructure:"enable_compression" json:"enable_compression" yaml:"enable_compression"`
	TLS               *TLSConfig `mapstructure:"tls" json:"tls,omitempty" yaml:"tls,omitempty"`

	// Headers 握手附加头，Authorization 由 SetAuth 单独维护
	Headers map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`

	// Codec json 或 msgpack
	Codec         string `mapstructure:"codec" json:"codec" yaml:"codec"`
	SendQueueSize int    `mapstructure:"send_queue_size" json:"send_queue_size" yaml:"send_queue_size"`
	// WorkerPoolSize 读写循环、keepalive 与重连使用的协程数
	WorkerPoolSize int `mapstructure:"worker_pool_size" json:"worker_pool_size" yaml:"worker_pool_size"`
}

// DefaultClientConfig 返回默认客户端配置
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		URL:               "ws://localhost:3000/socket",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		DialTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		Keepalive:         DefaultKeepaliveConfig(),
		Reconnect:         DefaultReconnectConfig(),
		EnableCompression: true,
		Codec:             "json",
		SendQueueSize:     256,
		WorkerPoolSize:    16,
	}
}

// Validate 验证客户端配置并补全默认值
func (c *ClientConfig) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, c.URL)
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 4096
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = 4096
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = 16
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.Reconnect.InitialDelay <= 0 {
		c.Reconnect.InitialDelay = time.Second
	}
	if c.Reconnect.MaxDelay < c.Reconnect.InitialDelay {
		c.Reconnect.MaxDelay = c.Reconnect.InitialDelay
	}
	if c.Reconnect.Multiplier < 1 {
		c.Reconnect.Multiplier = 1
	}
	if c.Keepalive.Enable && c.Keepalive.Interval <= 0 {
		c.Keepalive.Interval = 25 * time.Second
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}
