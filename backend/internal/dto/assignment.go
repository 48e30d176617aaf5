package dto

import "encoding/json"

// ── 作业模块 DTO ──

// CreateAssignmentRequest 在教学周下创建作业
type CreateAssignmentRequest struct {
	Name         string          `json:"name"         binding:"required,max=64"`
	Instructions string          `json:"instructions" binding:"max=4096"`
	Questions    json.RawMessage `json:"questions"`
}

// UpdateAssignmentRequest 更新作业
type UpdateAssignmentRequest struct {
	Name         *string         `json:"name"         binding:"omitempty,min=1,max=64"`
	Instructions *string         `json:"instructions" binding:"omitempty,max=4096"`
	Questions    json.RawMessage `json:"questions"`
}

// SubmitRequest 提交作业
type SubmitRequest struct {
	Text string `json:"text" binding:"required"`
}

// FeedbackRequest 对提交发表反馈
type FeedbackRequest struct {
	Text string `json:"text" binding:"required"`
}
