package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"college-jump/backend/internal/model"
	"college-jump/backend/pkg/response"
)

// Logger 请求日志中间件（基于 Zap 结构化日志）
// 已认证请求附带 user_id；5xx 响应附带 incident_id 与完整错误，便于按响应中的事件 ID 排查
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.Int("bytes", c.Writer.Size()),
		}

		// 路由模板便于按接口聚合，未匹配路由时为空
		if route := c.FullPath(); route != "" && route != path {
			fields = append(fields, zap.String("route", route))
		}
		// JWTAuth 在认证成功后写入；公开接口没有
		if uid := c.GetString(UserIDKey); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
			if u, ok := c.Get(UserKey); ok {
				if user, ok := u.(*model.User); ok && user.IsAdmin {
					fields = append(fields, zap.Bool("admin", true))
				}
			}
		}

		if rid := c.GetString(requestIDKey); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if incident := c.GetString(response.IncidentKey); incident != "" {
			fields = append(fields, zap.String("incident_id", incident))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		if statusCode >= 500 {
			logger.Error("请求处理失败", fields...)
		} else if statusCode >= 400 {
			logger.Warn("客户端错误", fields...)
		} else {
			logger.Info("请求完成", fields...)
		}
	}
}
