package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/response"
)

// DocumentHandler 教学资料 HTTP 处理器
type DocumentHandler struct {
	documentSvc service.DocumentService
}

// NewDocumentHandler 创建 DocumentHandler
func NewDocumentHandler(documentSvc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentSvc: documentSvc}
}

// Download 下载资料原始内容
// GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	doc, err := h.documentSvc.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.handleDocumentError(c, err)
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(doc.Name))
	c.Data(http.StatusOK, contentType, doc.Data)
}

// DeleteDocument 删除资料
// DELETE /api/v1/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.documentSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleDocumentError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *DocumentHandler) handleDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		response.NotFound(c, 16001, "资料不存在")
	default:
		handleCommonError(c, err)
	}
}
