package feishu

import "errors"

var (
	// ErrResponseInvalid 响应格式无效
	ErrResponseInvalid = errors.New("feishu: invalid response")

	// ErrAPIError 飞书 API 返回错误
	ErrAPIError = errors.New("feishu: api error")
)
