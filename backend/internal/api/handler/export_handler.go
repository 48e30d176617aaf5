package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSubmissions 导出作业提交列表
// GET /api/v1/assignments/:id/submissions/export
func (h *ExportHandler) ExportSubmissions(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.SubmissionsXLSX(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Calendar 导出当前用户关注学期的教学周日历
// GET /api/v1/calendar.ics
func (h *ExportHandler) Calendar(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	buf, err := h.exportSvc.Calendar(c.Request.Context(), user)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 15001, "作业不存在")
	default:
		handleCommonError(c, err)
	}
}
