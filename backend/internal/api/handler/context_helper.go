package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/api/middleware"
	"college-jump/backend/internal/model"
	"college-jump/backend/pkg/jwt"
	"college-jump/backend/pkg/response"
)

// MustGetUser 从 Gin 上下文中安全提取当前用户。
// 如果 JWT 中间件未正确注入用户，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(middleware.UserKey)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	u, ok := v.(*model.User)
	if !ok || u == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return u, true
}

// MustGetClaims 从 Gin 上下文中安全提取 access token 的 claims。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ClaimsKey)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// mustParamWeekNum 解析路径中的教学周编号
func mustParamWeekNum(c *gin.Context) (int, bool) {
	num, err := strconv.Atoi(c.Param("num"))
	if err != nil || num < 1 {
		response.BadRequest(c, 10001, "教学周编号无效")
		return 0, false
	}
	return num, true
}
