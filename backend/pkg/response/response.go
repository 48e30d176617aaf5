package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "college-jump/backend/pkg/errors"
)

// IncidentKey 内部错误事件 ID 在 gin.Context 中的键，请求日志据此关联完整错误
const IncidentKey = "incident_id"

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, message string, details interface{}) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// ValidationFailed 400，附带失败字段与规则
// 非 ValidationError 时退化为普通参数错误
func ValidationFailed(c *gin.Context, err error) {
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		BadRequest(c, 10001, "参数校验失败")
		return
	}
	ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", gin.H{
		"field": ve.Field,
		"rule":  ve.Rule,
		"param": ve.Param,
	})
}

// ImportFailed 422，附带失败的表名
func ImportFailed(c *gin.Context, err *apperrors.ImportFailedError) {
	ErrorWithDetails(c, http.StatusUnprocessableEntity, 18001, "导入失败，数据未做任何修改", gin.H{
		"table": err.Table,
	})
}

// InternalError 500
// 生成事件 ID 并把错误挂到 gin.Context，由请求日志输出完整错误；响应只返回事件 ID
func InternalError(c *gin.Context, err error) {
	incident := uuid.NewString()
	c.Set(IncidentKey, incident)
	if err != nil {
		_ = c.Error(err)
	}
	ErrorWithDetails(c, http.StatusInternalServerError, 50000, "服务器内部错误", gin.H{
		"incident_id": incident,
	})
}
