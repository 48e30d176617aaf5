package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/api/middleware"
	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/response"
)

// BackupHandler 整库导入导出 HTTP 处理器
type BackupHandler struct {
	backupSvc  service.BackupService
	maxArchive int64
}

// NewBackupHandler 创建 BackupHandler
// maxArchive: 上传归档的最大字节数
func NewBackupHandler(backupSvc service.BackupService, maxArchive int64) *BackupHandler {
	return &BackupHandler{backupSvc: backupSvc, maxArchive: maxArchive}
}

// Export 导出整库为 zip 归档
// GET /api/v1/admin/export
func (h *BackupHandler) Export(c *gin.Context) {
	// 先写入缓冲区，导出失败时仍能返回 JSON 错误
	var buf bytes.Buffer
	if err := h.backupSvc.Export(c.Request.Context(), &buf); err != nil {
		handleCommonError(c, err)
		return
	}

	filename := fmt.Sprintf("college-jump-%s.zip", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// Import 从 zip 归档导入，归档内出现的表整体替换
// POST /api/v1/admin/import
func (h *BackupHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			middleware.AbortBodyTooLarge(c)
			return
		}
		response.BadRequest(c, 18002, "请上传 zip 归档（字段名 file）")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxArchive+1))
	if err != nil {
		handleCommonError(c, err)
		return
	}
	if int64(len(data)) > h.maxArchive {
		middleware.AbortBodyTooLarge(c)
		return
	}

	result, err := h.backupSvc.Import(c.Request.Context(), data)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}
