package middleware

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"college-jump/backend/pkg/response"
)

// Recovery 捕获 panic 并返回带事件 ID 的 500 响应
// 堆栈不写入默认输出，错误经 c.Errors 由 Logger 统一记录
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		response.InternalError(c, fmt.Errorf("panic: %v", recovered))
		c.Abort()
	})
}
