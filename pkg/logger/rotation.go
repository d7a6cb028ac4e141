package logger

import (
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultRotateEvery  = 24 * time.Hour
	defaultRotateRetain = 7 * 24 * time.Hour
	defaultRotateSuffix = ".%Y%m%d%H"
)

// NewRotationWriter 按 cfg.Type 选择轮换实现，未知类型按大小轮换
func NewRotationWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	if cfg.Type == RotationByTime {
		return newTimeRotationWriter(cfg, outputPath)
	}
	return &lumberjack.Logger{
		Filename:   outputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, nil
}

// newTimeRotationWriter OutputPath 为指向当前文件的软链接
func newTimeRotationWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	every, retain, suffix := cfg.Every, cfg.Retain, cfg.Suffix
	if every <= 0 {
		every = defaultRotateEvery
	}
	if retain <= 0 {
		retain = defaultRotateRetain
	}
	if suffix == "" {
		suffix = defaultRotateSuffix
	}

	return rotatelogs.New(
		outputPath+suffix,
		rotatelogs.WithLinkName(outputPath),
		rotatelogs.WithRotationTime(every),
		rotatelogs.WithMaxAge(retain),
	)
}
