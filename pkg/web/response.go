package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 提示信息
	Data    any    `json:"data"`    // 数据载体
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

// Error 按错误码返回错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(CodeToStatus(code), Response{
		Code:    code,
		Message: message,
	})
}

// AbortWithError 中断并返回错误
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(CodeToStatus(code), Response{
		Code:    code,
		Message: message,
	})
}
