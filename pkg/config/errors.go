package config

import "github.com/cockroachdb/errors"

var (
	ErrValidationFailed = errors.New("config validation failed")
	ErrNilConfig        = errors.New("config cannot be nil")

	// ErrBothNil 合并时两侧均为 nil
	ErrBothNil = errors.New("both dst and src cannot be nil")

	// ErrTypeMismatch 合并两侧字段类型不一致
	ErrTypeMismatch = errors.New("config merge type mismatch")
)
