package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/response"
)

// AnnouncementHandler 公告 HTTP 处理器
type AnnouncementHandler struct {
	announcementSvc service.AnnouncementService
}

// NewAnnouncementHandler 创建 AnnouncementHandler
func NewAnnouncementHandler(announcementSvc service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementSvc: announcementSvc}
}

// ListAnnouncements 获取公告列表（按发布时间倒序）
// GET /api/v1/announcements
func (h *AnnouncementHandler) ListAnnouncements(c *gin.Context) {
	list, err := h.announcementSvc.List(c.Request.Context())
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateAnnouncement 发布公告
// POST /api/v1/announcements
func (h *AnnouncementHandler) CreateAnnouncement(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}
	var req dto.CreateAnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}

	announcement, err := h.announcementSvc.Create(c.Request.Context(), user, &req)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.Created(c, announcement)
}

// UpdateAnnouncement 修改公告
// PUT /api/v1/announcements/:id
func (h *AnnouncementHandler) UpdateAnnouncement(c *gin.Context) {
	var req dto.UpdateAnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}

	announcement, err := h.announcementSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, announcement)
}

// DeleteAnnouncement 删除公告
// DELETE /api/v1/announcements/:id
func (h *AnnouncementHandler) DeleteAnnouncement(c *gin.Context) {
	if err := h.announcementSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *AnnouncementHandler) handleAnnouncementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnnouncementNotFound):
		response.NotFound(c, 17001, "公告不存在")
	default:
		handleCommonError(c, err)
	}
}
