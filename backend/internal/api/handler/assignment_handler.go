package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/response"
)

// AssignmentHandler 作业、提交与反馈 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// GetAssignment 获取作业详情
// GET /api/v1/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentSvc.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, assignment)
}

// UpdateAssignment 更新作业
// PUT /api/v1/assignments/:id
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	var req dto.UpdateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := h.assignmentSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, assignment)
}

// DeleteAssignment 删除作业及其提交与反馈
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	if err := h.assignmentSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// Submit 提交作业
// POST /api/v1/assignments/:id/submissions
func (h *AssignmentHandler) Submit(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}
	var req dto.SubmitRequest
	if !bindJSON(c, &req) {
		return
	}

	submission, err := h.assignmentSvc.Submit(c.Request.Context(), user, c.Param("id"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.Created(c, submission)
}

// ListSubmissions 当前用户可反馈的提交
// GET /api/v1/assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	submissions, err := h.assignmentSvc.ListForFeedback(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": submissions})
}

// ListFeedback 获取提交的反馈
// GET /api/v1/submissions/:id/feedback
func (h *AssignmentHandler) ListFeedback(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	feedback, err := h.assignmentSvc.ListFeedback(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": feedback})
}

// AddFeedback 对提交发表反馈
// POST /api/v1/submissions/:id/feedback
func (h *AssignmentHandler) AddFeedback(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}
	var req dto.FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	feedback, err := h.assignmentSvc.AddFeedback(c.Request.Context(), user, c.Param("id"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.Created(c, feedback)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 15001, "作业不存在")
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 15002, "提交不存在")
	default:
		handleCommonError(c, err)
	}
}
