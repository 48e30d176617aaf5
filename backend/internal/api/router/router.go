package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"college-jump/backend/config"
	"college-jump/backend/internal/api/handler"
	"college-jump/backend/internal/api/middleware"
	"college-jump/backend/pkg/jwt"
	"college-jump/backend/pkg/redis"
)

// multipartOverhead 上传归档时 multipart 边界与表单字段的额外余量
const multipartOverhead = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil，此时黑名单与限流降级为不生效
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, loader middleware.UserLoader, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Backup.MaxArchiveBytes() + multipartOverhead))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	loginLimit := middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, time.Minute)
	admin := middleware.AdminOnly()

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/setup", loginLimit, h.Auth.Setup)
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, loader))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", admin, h.User.ListUsers)
				users.POST("", admin, h.User.CreateUser)
				users.POST("/import", admin, h.User.ImportUsers)
				users.GET("/:id", h.User.GetUser)    // 本人或管理员（Service 层鉴权）
				users.PUT("/:id", h.User.UpdateUser) // 按角色选择编辑表单
				users.DELETE("/:id", admin, h.User.DeleteUser)
			}

			// 学期与教学周
			semesters := authorized.Group("/semesters")
			{
				semesters.GET("", h.Semester.ListSemesters)
				semesters.POST("", admin, h.Semester.CreateSemester)
				semesters.GET("/:id", h.Semester.GetSemester)
				semesters.PUT("/:id", admin, h.Semester.UpdateSemester)
				semesters.DELETE("/:id", admin, h.Semester.DeleteSemester)

				semesters.GET("/:id/weeks", h.Semester.ListWeeks)
				semesters.POST("/:id/weeks", admin, h.Semester.CreateWeek)
				semesters.GET("/:id/weeks/:num", h.Semester.GetWeek)
				semesters.PUT("/:id/weeks/:num", admin, h.Semester.UpdateWeek)
				semesters.DELETE("/:id/weeks/:num", admin, h.Semester.DeleteWeek)
				semesters.POST("/:id/weeks/:num/assignments", admin, h.Semester.AddAssignment)
				semesters.POST("/:id/weeks/:num/documents", admin, h.Semester.AddDocument)
			}

			// 作业与提交
			assignments := authorized.Group("/assignments")
			{
				assignments.GET("/:id", h.Assignment.GetAssignment)
				assignments.PUT("/:id", admin, h.Assignment.UpdateAssignment)
				assignments.DELETE("/:id", admin, h.Assignment.DeleteAssignment)
				assignments.POST("/:id/submissions", h.Assignment.Submit)
				assignments.GET("/:id/submissions", h.Assignment.ListSubmissions)
				assignments.GET("/:id/submissions/export", h.Export.ExportSubmissions)
			}

			submissions := authorized.Group("/submissions")
			{
				submissions.GET("/:id/feedback", h.Assignment.ListFeedback)
				submissions.POST("/:id/feedback", h.Assignment.AddFeedback)
			}

			// 教学资料
			documents := authorized.Group("/documents")
			{
				documents.GET("/:id/download", h.Document.Download)
				documents.DELETE("/:id", admin, h.Document.DeleteDocument)
			}

			// 公告
			announcements := authorized.Group("/announcements")
			{
				announcements.GET("", h.Announcement.ListAnnouncements)
				announcements.POST("", admin, h.Announcement.CreateAnnouncement)
				announcements.PUT("/:id", admin, h.Announcement.UpdateAnnouncement)
				announcements.DELETE("/:id", admin, h.Announcement.DeleteAnnouncement)
			}

			// 整库导入导出
			backup := authorized.Group("/admin", admin)
			{
				backup.GET("/export", h.Backup.Export)
				backup.POST("/import", h.Backup.Import)
			}

			authorized.GET("/calendar.ics", h.Export.Calendar)
		}
	}

	return r
}
