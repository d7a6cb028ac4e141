package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

type testRealtimeConfig struct {
	URL                    string        `mapstructure:"url"`
	AuthTimeout            time.Duration `mapstructure:"auth_timeout"`
	HeartbeatInterval      time.Duration `mapstructure:"heartbeat_interval"`
	ManualReconnectReasons []string      `mapstructure:"manual_reconnect_reasons"`
}

type testAppConfig struct {
	Realtime testRealtimeConfig `mapstructure:"realtime"`
	Log      struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

const testYAML = `
realtime:
  url: "ws://localhost:3000/ws"
  auth_timeout: 10s
  heartbeat_interval: 30s
  manual_reconnect_reasons:
    - "io server disconnect"
log:
  level: info
`

// createTestConfigFile 创建测试配置文件
func createTestConfigFile(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "lendhub.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

// TestManagerLoadFile 测试加载配置文件
func TestManagerLoadFile(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile(createTestConfigFile(t, testYAML)); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	var cfg testAppConfig
	if err := mgr.Unmarshal(&cfg); err != nil {
		t.Fatalf("Failed to unmarshal config: %v", err)
	}

	if cfg.Realtime.URL != "ws://localhost:3000/ws" {
		t.Errorf("Expected url ws://localhost:3000/ws, got %s", cfg.Realtime.URL)
	}
	if cfg.Realtime.AuthTimeout != 10*time.Second {
		t.Errorf("Expected auth_timeout 10s, got %v", cfg.Realtime.AuthTimeout)
	}
	if len(cfg.Realtime.ManualReconnectReasons) != 1 || cfg.Realtime.ManualReconnectReasons[0] != "io server disconnect" {
		t.Errorf("Unexpected manual_reconnect_reasons: %v", cfg.Realtime.ManualReconnectReasons)
	}
}

// TestManagerLoadFileMissing 文件不存在
func TestManagerLoadFileMissing(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

// TestManagerUnmarshalKey 测试按路径解析
func TestManagerUnmarshalKey(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile(createTestConfigFile(t, testYAML)); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	var rt testRealtimeConfig
	if err := mgr.UnmarshalKey("realtime", &rt); err != nil {
		t.Fatalf("UnmarshalKey() error = %v", err)
	}
	if rt.HeartbeatInterval != 30*time.Second {
		t.Errorf("Expected heartbeat_interval 30s, got %v", rt.HeartbeatInterval)
	}

	if !mgr.IsSet("realtime.url") {
		t.Error("Expected realtime.url to be set")
	}
	if mgr.IsSet("realtime.missing") {
		t.Error("Expected realtime.missing to be unset")
	}

	var missing testRealtimeConfig
	if err := mgr.UnmarshalKey("transport", &missing); err != nil {
		t.Errorf("UnmarshalKey() on a missing section error = %v", err)
	}
	if missing.URL != "" {
		t.Errorf("Expected empty section, got %+v", missing)
	}
}

// TestManagerBindEnv 测试环境变量覆盖，时长与列表经解码钩子转换
func TestManagerBindEnv(t *testing.T) {
	t.Setenv("LENDHUB_REALTIME_URL", "wss://lendhub.example.com/ws")
	t.Setenv("LENDHUB_REALTIME_AUTH_TIMEOUT", "3s")
	t.Setenv("LENDHUB_REALTIME_MANUAL_RECONNECT_REASONS", "io server disconnect,kicked")

	mgr := NewManager(WithEnvPrefix(EnvPrefix))
	path := createTestConfigFile(t, testYAML)
	if err := mgr.LoadFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}
	if mgr.Path() != path {
		t.Errorf("Path() = %s, want %s", mgr.Path(), path)
	}

	var rt testRealtimeConfig
	if err := mgr.UnmarshalKey("realtime", &rt); err != nil {
		t.Fatalf("UnmarshalKey() error = %v", err)
	}
	if rt.URL != "wss://lendhub.example.com/ws" {
		t.Errorf("Expected env override, got %s", rt.URL)
	}
	if rt.AuthTimeout != 3*time.Second {
		t.Errorf("Expected auth_timeout 3s, got %v", rt.AuthTimeout)
	}
	if len(rt.ManualReconnectReasons) != 2 || rt.ManualReconnectReasons[1] != "kicked" {
		t.Errorf("Unexpected manual_reconnect_reasons: %v", rt.ManualReconnectReasons)
	}
}

// TestManagerWithDefaults 测试默认值
func TestManagerWithDefaults(t *testing.T) {
	mgr := NewManager(WithDefaults(map[string]any{
		"realtime.auth_timeout": "10s",
		"realtime.url":          "ws://localhost:3000/socket",
	}))

	var rt testRealtimeConfig
	if err := mgr.UnmarshalKey("realtime", &rt); err != nil {
		t.Fatalf("UnmarshalKey() error = %v", err)
	}
	if rt.AuthTimeout != 10*time.Second {
		t.Errorf("Expected default 10s, got %v", rt.AuthTimeout)
	}
	if rt.URL != "ws://localhost:3000/socket" {
		t.Errorf("Expected default url, got %s", rt.URL)
	}
}

// TestManagerWithViper 测试外部 viper 实例
func TestManagerWithViper(t *testing.T) {
	v := viper.New()
	v.Set("log.level", "debug")

	mgr := NewManager(WithViper(v))
	var cfg testAppConfig
	if err := mgr.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected debug, got %s", cfg.Log.Level)
	}
}

// TestManagerWatchWithoutFile 未加载文件时不能监听
func TestManagerWatchWithoutFile(t *testing.T) {
	if err := NewManager().Watch(func() {}); err == nil {
		t.Error("Expected error when watching without a file")
	}
}
