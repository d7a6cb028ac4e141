package logger

import (
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// TestNewRotationWriter 测试创建轮换 writer
func TestNewRotationWriter(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "test.log")

	tests := []struct {
		name     string
		config   *RotationConfig
		wantSize bool
	}{
		{
			name: "size rotation",
			config: &RotationConfig{
				Type:       RotationBySize,
				MaxSize:    100,
				MaxBackups: 5,
				MaxAge:     7,
				Compress:   true,
			},
			wantSize: true,
		},
		{
			name: "time rotation",
			config: &RotationConfig{
				Type:   RotationByTime,
				Every:  24 * time.Hour,
				Retain: 168 * time.Hour,
				Suffix: ".%Y%m%d",
			},
		},
		{
			name: "time rotation with zero durations falls back",
			config: &RotationConfig{
				Type: RotationByTime,
			},
		},
		{
			name:     "default rotation (size)",
			config:   &RotationConfig{},
			wantSize: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer, err := NewRotationWriter(tt.config, outputPath)
			if err != nil {
				t.Fatalf("NewRotationWriter() error = %v", err)
			}
			_, isSize := writer.(*lumberjack.Logger)
			if isSize != tt.wantSize {
				t.Errorf("size writer = %v, want %v", isSize, tt.wantSize)
			}
		})
	}
}
