package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"college-jump/backend/internal/model"
	"college-jump/backend/internal/service"
	"college-jump/backend/pkg/jwt"
	"college-jump/backend/pkg/redis"
	"college-jump/backend/pkg/response"
)

// gin.Context 中的认证信息键
const (
	UserKey   = "user"
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

// UserLoader 按 token 中的用户 ID 加载当前用户
type UserLoader interface {
	LoadUser(ctx context.Context, userID string) (*model.User, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取 Access Token，检查黑名单后重新加载用户，
// 使管理员身份的变更与账号删除即时生效
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseTyped(parts[1], jwt.TokenTypeAccess)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		// Redis 不可用时跳过黑名单检查
		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		user, err := loader.LoadUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.Unauthorized(c, 10002, "用户不存在")
			} else {
				response.InternalError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// AdminOnly 仅管理员可访问，需挂在 JWTAuth 之后
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(UserKey)
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		user, ok := v.(*model.User)
		if !ok || !user.IsAdmin {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Next()
	}
}
