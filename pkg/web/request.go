package web

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNameOnce sync.Once

// registerJSONTagNames 校验错误中显示 json tag 而非结构体字段名
func registerJSONTagNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// BindAndValidate 绑定并校验请求参数，失败时已写入响应
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			fields := make([]string, 0, len(errs))
			for _, fe := range errs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			Error(c, CodeInvalidParams, "invalid fields: "+strings.Join(fields, ", "))
			return false
		}
		Error(c, CodeInvalidParams, "invalid request parameters: "+err.Error())
		return false
	}
	return true
}
