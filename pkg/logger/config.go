package logger

import (
	"time"

	"github.com/lk2023060901/lendhub/pkg/config"
)

// Level 日志等级
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Format 日志格式
type Format string

const (
	JSONFormat    Format = "json"
	ConsoleFormat Format = "console"
)

// RotationType 轮换类型
type RotationType string

const (
	RotationBySize RotationType = "size"
	RotationByTime RotationType = "time"
)

// Config 日志配置
type Config struct {
	Level  Level  `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format Format `mapstructure:"format" validate:"omitempty,oneof=json console"`

	// 输出配置
	EnableConsole bool   `mapstructure:"enable_console"`
	EnableFile    bool   `mapstructure:"enable_file"`
	OutputPath    string `mapstructure:"output_path"`

	TimeFormat string `mapstructure:"time_format"` // 默认: 2006-01-02 15:04:05

	Rotation RotationConfig `mapstructure:"rotation"`

	EnableStacktrace bool  `mapstructure:"enable_stacktrace"`
	StacktraceLevel  Level `mapstructure:"stacktrace_level"`

	Development bool `mapstructure:"development"`

	GlobalFields map[string]interface{} `mapstructure:"global_fields"`

	// 脱敏字段名，命中的字段值在输出前被替换
	SensitiveKeys []string `mapstructure:"sensitive_keys"`

	// 运行时设置，不参与反序列化
	ContextExtractor ContextFieldExtractor `mapstructure:"-"`
}

// RotationConfig 文件轮换，size 使用 lumberjack，time 使用 file-rotatelogs
type RotationConfig struct {
	Type RotationType `mapstructure:"type" validate:"omitempty,oneof=size time"`

	MaxSize    int  `mapstructure:"max_size"` // MB
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"` // 天
	Compress   bool `mapstructure:"compress"`

	// Every 切分周期，例如 1h、24h
	Every time.Duration `mapstructure:"every" validate:"gte=0"`
	// Retain 切分后文件的保留时长
	Retain time.Duration `mapstructure:"retain" validate:"gte=0"`
	// Suffix strftime 格式，追加在 OutputPath 之后
	Suffix string `mapstructure:"suffix"`
}

// DefaultConfig 默认配置，仅控制台输出
func DefaultConfig() *Config {
	return &Config{
		Level:         InfoLevel,
		Format:        ConsoleFormat,
		EnableConsole: true,
		TimeFormat:    "2006-01-02 15:04:05",
		Rotation: RotationConfig{
			Type:       RotationBySize,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     7,
			Compress:   true,
			Every:      24 * time.Hour,
			Retain:     7 * 24 * time.Hour,
			Suffix:     ".%Y%m%d",
		},
		EnableStacktrace: true,
		StacktraceLevel:  ErrorLevel,
		GlobalFields:     make(map[string]interface{}),
	}
}

// Validate 输出目标检查在前，其余按 validate tag
func (c *Config) Validate() error {
	if c.EnableFile && c.OutputPath == "" {
		return ErrInvalidOutputPath
	}
	if !c.EnableConsole && !c.EnableFile {
		return ErrNoOutputEnabled
	}
	return config.Validate(c)
}
