package dto

import "time"

// ── 公告模块 DTO ──

// CreateAnnouncementRequest 发布公告
type CreateAnnouncementRequest struct {
	Title     string     `json:"title"      binding:"required,max=128"`
	Content   string     `json:"content"    binding:"max=1000"`
	CreatedAt *time.Time `json:"created_at"` // 为空时取当前时间
}

// UpdateAnnouncementRequest 修改公告
type UpdateAnnouncementRequest struct {
	Title   *string `json:"title"   binding:"omitempty,min=1,max=128"`
	Content *string `json:"content" binding:"omitempty,max=1000"`
}
