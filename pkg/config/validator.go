package config

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Validator 基于 validate tag 的配置校验
//
// 除 validator 自带规则外注册了：
//   - wsurl: ws:// 或 wss:// 且带主机名
type Validator struct {
	validate *validator.Validate
}

// NewValidator 创建验证器
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("wsurl", isWebSocketURL)
	return &Validator{validate: v}
}

func isWebSocketURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "ws" || u.Scheme == "wss") && u.Host != ""
}

// Register 注册额外规则
func (v *Validator) Register(tag string, fn validator.Func) error {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		return errors.Wrapf(err, "register validation %q", tag)
	}
	return nil
}

func (v *Validator) Validate(cfg any) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if err := v.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, describe(err))
	}
	return nil
}

// ValidateField 校验单个值
func (v *Validator) ValidateField(field any, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, describe(err))
	}
	return nil
}

var (
	shared     *Validator
	sharedOnce sync.Once
)

// Validate 使用进程内共享的验证器
func Validate(cfg any) error {
	sharedOnce.Do(func() { shared = NewValidator() })
	return shared.Validate(cfg)
}

// messages 按 tag 生成可读描述，%[1]s 为字段，%[2]s 为参数
var messages = map[string]string{
	"required": "%[1]s is required",
	"min":      "%[1]s must be at least %[2]s",
	"max":      "%[1]s must be at most %[2]s",
	"gt":       "%[1]s must be greater than %[2]s",
	"gte":      "%[1]s must be greater than or equal to %[2]s",
	"lte":      "%[1]s must be less than or equal to %[2]s",
	"oneof":    "%[1]s must be one of [%[2]s]",
	"url":      "%[1]s must be a valid URL",
	"wsurl":    "%[1]s must be a ws:// or wss:// URL",
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := "field '" + fe.Namespace() + "'"
		if format, ok := messages[fe.Tag()]; ok {
			parts = append(parts, fmt.Sprintf(format, field, fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed validation '%s'", field, fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
