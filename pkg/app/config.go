package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lk2023060901/lendhub/pkg/config"
	"github.com/spf13/pflag"
)

// ConfigEnv 指定配置文件路径的环境变量
const ConfigEnv = config.EnvPrefix + "_CONFIG"

// LoadConfig 解析命令行并加载配置到 target，返回的 Manager 可用于热更新
// 优先级：1. 命令行显式参数 > 2. 环境变量 > 3. 配置文件 > 4. 默认值
func LoadConfig(target any, opts ...config.Option) (config.Manager, error) {
	return LoadConfigFrom(pflag.CommandLine, os.Args[1:], target, opts...)
}

// LoadConfigFrom 使用指定 FlagSet 与参数加载配置
// 未解析的 fs 会先注册 --config/-c 并解析 args
func LoadConfigFrom(fs *pflag.FlagSet, args []string, target any, opts ...config.Option) (config.Manager, error) {
	dir, err := execDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable directory: %w", err)
	}
	defaultConfig := filepath.Join(dir, "config.yaml")

	if fs.Lookup("config") == nil {
		fs.StringP("config", "c", defaultConfig, "path to config file")
	}
	if !fs.Parsed() {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	// Flag 显式指定 > 环境变量 LENDHUB_CONFIG > 默认路径
	path, _ := fs.GetString("config")
	if !fs.Changed("config") {
		if env := os.Getenv(ConfigEnv); env != "" {
			path = env
		}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found at %s: %w", path, err)
	}
	mgr := config.NewManager(append(opts, config.WithEnvPrefix(config.EnvPrefix))...)
	if err := mgr.LoadFile(path); err != nil {
		return nil, err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return nil, err
	}
	return mgr, nil
}

// execDir 可执行文件所在目录，解析符号链接
func execDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}
