package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/api/middleware"
	apperrors "college-jump/backend/pkg/errors"
	"college-jump/backend/pkg/response"
)

// bindJSON 绑定请求体，失败时写入 400/413 响应
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			middleware.AbortBodyTooLarge(c)
			return false
		}
		response.ValidationFailed(c, apperrors.FromValidator(err))
		return false
	}
	return true
}

// handleCommonError 各模块共用的错误映射，模块特有错误由 handleXxxError 先行处理
func handleCommonError(c *gin.Context, err error) {
	var importErr *apperrors.ImportFailedError
	switch {
	case errors.As(err, &importErr):
		response.ImportFailed(c, importErr)
	case apperrors.IsValidation(err):
		response.ValidationFailed(c, err)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		response.Forbidden(c, 10003, "无权限访问")
	case middleware.IsBodyTooLarge(err):
		middleware.AbortBodyTooLarge(c)
	default:
		response.InternalError(c, err)
	}
}
