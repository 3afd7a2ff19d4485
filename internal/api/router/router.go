package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lms-progress/config"
	"lms-progress/internal/api/handler"
	"lms-progress/internal/api/middleware"
	"lms-progress/pkg/jwt"
	"lms-progress/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要认证） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	v1.Use(middleware.RateLimit(rdb, 120, time.Minute))
	{
		v1.GET("/majors", h.Student.ListMajors)

		// 通知（任意角色，只能访问本人通知）
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
		}

		// 学生端
		me := v1.Group("/students/me")
		me.Use(middleware.RoleAuth(jwt.RoleStudent))
		{
			me.GET("/semesters", h.Student.GetSemesterProgram)
			me.GET("/major", h.Student.GetMajorCurriculum)
			me.PUT("/major", h.Student.SelectMajor)
			me.POST("/courses/:courseId/sessions", h.Student.RecordSession)
			me.POST("/courses/:courseId/projects", h.Student.SubmitProject)
		}

		// 管理端
		admin := v1.Group("/admin")
		admin.Use(middleware.RoleAuth(jwt.RoleAdmin))
		{
			admin.GET("/approvals/pending", h.Approval.ListPending)
			admin.GET("/courses/:id/progress", h.Approval.GetCourseTracking)

			progress := admin.Group("/progress")
			{
				// 批量通过（静态路径优先于 /:id）
				progress.POST("/bulk-pass", middleware.RateLimit(rdb, 10, time.Minute), h.BulkPass.Start)
				progress.GET("/bulk-pass/:jobId", h.BulkPass.Get)
				progress.POST("/bulk-pass/:jobId/cancel", h.BulkPass.Cancel)
				progress.GET("/bulk-pass/:jobId/report", h.BulkPass.Report)

				progress.GET("/:id", h.Approval.GetProgress)
				progress.POST("/:id/approve", h.Approval.Approve)
				progress.POST("/:id/reject", h.Approval.Reject)
			}

			// 行内编辑
			edits := admin.Group("/edits")
			{
				edits.POST("", h.Edit.Start)
				edits.GET("/current", h.Edit.Current)
				edits.PUT("/current", h.Edit.Update)
				edits.POST("/current/save", h.Edit.Save)
				edits.DELETE("/current", h.Edit.Cancel)
			}
		}
	}

	return r
}
