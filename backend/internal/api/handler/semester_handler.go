package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/api/middleware"
	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/model"
	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/response"
)

// SemesterHandler 学期与教学周 HTTP 处理器
type SemesterHandler struct {
	semesterSvc service.SemesterService
	weekSvc     service.WeekService
}

// NewSemesterHandler 创建 SemesterHandler
func NewSemesterHandler(semesterSvc service.SemesterService, weekSvc service.WeekService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc, weekSvc: weekSvc}
}

// ListSemesters 获取当前用户关注的学期
// GET /api/v1/semesters
func (h *SemesterHandler) ListSemesters(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	semesters, err := h.semesterSvc.ListInterested(c.Request.Context(), user)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": semesters})
}

// GetSemester 获取学期详情
// GET /api/v1/semesters/:id
func (h *SemesterHandler) GetSemester(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, semester)
}

// CreateSemester 创建学期
// POST /api/v1/semesters
func (h *SemesterHandler) CreateSemester(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}

	semester, err := h.semesterSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, semester)
}

// UpdateSemester 更新学期
// PUT /api/v1/semesters/:id
func (h *SemesterHandler) UpdateSemester(c *gin.Context) {
	var req dto.UpdateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}

	semester, err := h.semesterSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, semester)
}

// DeleteSemester 删除学期
// DELETE /api/v1/semesters/:id
func (h *SemesterHandler) DeleteSemester(c *gin.Context) {
	if err := h.semesterSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 教学周 ──

// ListWeeks 获取学期下的教学周
// GET /api/v1/semesters/:id/weeks
func (h *SemesterHandler) ListWeeks(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}

	weeks, err := h.weekSvc.List(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": weeks})
}

// CreateWeek 在学期末尾追加教学周
// POST /api/v1/semesters/:id/weeks
func (h *SemesterHandler) CreateWeek(c *gin.Context) {
	var req dto.CreateWeekRequest
	if !bindJSON(c, &req) {
		return
	}

	week, err := h.weekSvc.Create(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, week)
}

// GetWeek 获取教学周详情
// GET /api/v1/semesters/:id/weeks/:num
func (h *SemesterHandler) GetWeek(c *gin.Context) {
	user, ok := MustGetUser(c)
	if !ok {
		return
	}
	num, ok := mustParamWeekNum(c)
	if !ok {
		return
	}

	week, err := h.weekSvc.Get(c.Request.Context(), user, c.Param("id"), num)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, week)
}

// UpdateWeek 更新教学周
// PUT /api/v1/semesters/:id/weeks/:num
func (h *SemesterHandler) UpdateWeek(c *gin.Context) {
	num, ok := mustParamWeekNum(c)
	if !ok {
		return
	}
	var req dto.UpdateWeekRequest
	if !bindJSON(c, &req) {
		return
	}

	week, err := h.weekSvc.Update(c.Request.Context(), c.Param("id"), num, &req)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, week)
}

// DeleteWeek 删除教学周，其后各周编号前移
// DELETE /api/v1/semesters/:id/weeks/:num
func (h *SemesterHandler) DeleteWeek(c *gin.Context) {
	num, ok := mustParamWeekNum(c)
	if !ok {
		return
	}

	if err := h.weekSvc.Delete(c.Request.Context(), c.Param("id"), num); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, nil)
}

// AddAssignment 在教学周下创建作业
// POST /api/v1/semesters/:id/weeks/:num/assignments
func (h *SemesterHandler) AddAssignment(c *gin.Context) {
	num, ok := mustParamWeekNum(c)
	if !ok {
		return
	}
	var req dto.CreateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := h.weekSvc.AddAssignment(c.Request.Context(), c.Param("id"), num, &req)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, assignment)
}

// AddDocument 上传教学周资料（multipart，字段 file，可选字段 name）
// POST /api/v1/semesters/:id/weeks/:num/documents
func (h *SemesterHandler) AddDocument(c *gin.Context) {
	num, ok := mustParamWeekNum(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			middleware.AbortBodyTooLarge(c)
			return
		}
		response.BadRequest(c, 10001, "请上传文件（字段名 file）")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = filepath.Base(header.Filename)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.weekSvc.AddDocument(c.Request.Context(), c.Param("id"), num, &model.Document{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, dto.DocumentRef{ID: doc.ID, Name: doc.Name, ContentType: doc.ContentType})
}

func (h *SemesterHandler) handleSemesterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 13001, "学期不存在")
	case errors.Is(err, service.ErrWeekNotFound):
		response.NotFound(c, 14001, "教学周不存在")
	default:
		handleCommonError(c, err)
	}
}
