package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/api/middleware"
	"college-jump/backend/internal/dto"
	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 获取全部用户
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.List(c.Request.Context())
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, gin.H{"list": users})
}

// CreateUser 管理员创建用户
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.Created(c, user)
}

// ImportUsers 从花名册 Excel 批量创建用户
// POST /api/v1/users/import
func (h *UserHandler) ImportUsers(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			middleware.AbortBodyTooLarge(c)
			return
		}
		response.BadRequest(c, 10001, "请上传 Excel 文件（字段名 file）")
		return
	}
	defer file.Close()

	rows, err := h.userSvc.ParseImportFile(file)
	if err != nil {
		response.BadRequest(c, 12004, err.Error())
		return
	}

	result, err := h.userSvc.ImportUsers(c.Request.Context(), rows)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// GetUser 获取用户详情（本人或管理员）
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	caller, ok := MustGetUser(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateUser 编辑用户；管理员使用完整表单，普通用户只能修改自己的姓名与密码
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := MustGetUser(c)
	if !ok {
		return
	}

	var req dto.UserEditRequest
	if caller.IsAdmin {
		edit := &dto.AdminEdit{}
		if !bindJSON(c, edit) {
			return
		}
		req = edit
	} else {
		edit := &dto.SelfEdit{}
		if !bindJSON(c, edit) {
			return
		}
		req = edit
	}

	user, err := h.userSvc.Edit(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := MustGetUser(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, 12002, "不能删除自己")
	case errors.Is(err, service.ErrUserSelfDemote):
		response.BadRequest(c, 12003, "不能取消自己的管理员身份")
	default:
		handleCommonError(c, err)
	}
}
