package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"school-portal/config"
	"school-portal/internal/api/handler"
	"school-portal/internal/api/middleware"
	"school-portal/pkg/jwt"
	"school-portal/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 写操作仅限管理员与教师
	editors := middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleTeacher)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	v1.Use(middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger))
	{
		// 班级
		classes := v1.Group("/classes")
		{
			classes.GET("", h.Catalog.ListClasses)
			classes.GET("/:id", h.Catalog.GetClass)
			classes.POST("", editors, h.Catalog.CreateClass)
			classes.PUT("/:id", editors, h.Catalog.UpdateClass)
			classes.DELETE("/:id", middleware.RoleAuth(jwt.RoleAdmin), h.Catalog.DeleteClass)
		}

		// 课程
		courses := v1.Group("/courses")
		{
			courses.GET("", h.Catalog.ListCourses)
			courses.GET("/:id", h.Catalog.GetCourse)
			courses.POST("", editors, h.Catalog.CreateCourse)
			courses.PUT("/:id", editors, h.Catalog.UpdateCourse)
			courses.DELETE("/:id", middleware.RoleAuth(jwt.RoleAdmin), h.Catalog.DeleteCourse)
		}

		// 课表
		timetables := v1.Group("/timetables")
		{
			timetables.GET("", h.Timetable.List)
			timetables.GET("/:id", h.Timetable.Get)
			timetables.POST("", editors, h.Timetable.Create)
			timetables.PUT("/:id", editors, h.Timetable.Update)
			timetables.DELETE("/:id", editors, h.Timetable.Delete)

			// 课次
			timetables.GET("/:id/sessions", h.Session.ListByTimetable)
			timetables.POST("/:id/sessions", editors, h.Session.Create)
			timetables.POST("/:id/sessions/import", editors, h.Session.ImportICS)

			// 解析 / 冲突 / 周视图
			timetables.GET("/:id/occurrences", h.Planning.Occurrences)
			timetables.GET("/:id/conflicts", h.Planning.Conflicts)
			timetables.GET("/:id/grid", h.Planning.Grid)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:id", h.Session.Get)
			sessions.PUT("/:id", editors, h.Session.Update)
			sessions.DELETE("/:id", editors, h.Session.Delete)
		}

		// 跨课表冲突（教室在班级之间共享）
		v1.GET("/conflicts", editors, h.Planning.GlobalConflicts)

		// 导出
		export := v1.Group("/export")
		{
			export.GET("/timetables/:id/ics", h.Export.ExportICS)
			export.GET("/timetables/:id/xlsx", h.Export.ExportXLSX)
		}
	}

	return r
}
