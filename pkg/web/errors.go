package web

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("web: invalid config")

	// ErrServerAlreadyStarted Server 已启动
	ErrServerAlreadyStarted = errors.New("web: server already started")
)

// 业务错误码
const (
	CodeOK            = 0
	CodeInvalidParams = 40001
	CodeUnauthorized  = 40002
	CodeForbidden     = 40003
	CodeNotFound      = 40004
	CodeInternalError = 50000
)

// CodeToStatus 将业务错误码映射为 HTTP 状态码
func CodeToStatus(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	}
	if code >= 50000 {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
