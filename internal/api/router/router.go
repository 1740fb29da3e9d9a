package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hyperzen/backend/config"
	"hyperzen/backend/internal/api/handler"
	"hyperzen/backend/internal/api/middleware"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/pkg/jwt"
	"hyperzen/backend/pkg/redis"
)

// 角色组合
var (
	adminOnly   = []string{model.RoleAdmin}
	financeRole = []string{model.RoleAdmin, model.RoleAccountant}
	staffRole   = []string{model.RoleAdmin, model.RoleAccountant, model.RoleSecretary}
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单与限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil 指针装入非 nil 接口
	var (
		blacklist middleware.BlacklistChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

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
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, time.Minute, logger), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 后台账号
			users := authorized.Group("/users", middleware.RoleAuth(adminOnly...))
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
			}

			// 学年
			years := authorized.Group("/school-years")
			{
				years.GET("", h.SchoolYear.ListSchoolYears)
				years.GET("/current", h.SchoolYear.GetCurrentSchoolYear)
				years.POST("", middleware.RoleAuth(adminOnly...), h.SchoolYear.CreateSchoolYear)
				years.PUT("/:id/activate", middleware.RoleAuth(adminOnly...), h.SchoolYear.ActivateSchoolYear)
			}

			// 学生
			students := authorized.Group("/students", middleware.RoleAuth(staffRole...))
			{
				students.GET("", h.Student.ListStudents)
				students.POST("", h.Student.CreateStudent)
				students.GET("/:id", h.Student.GetStudent)
				students.PUT("/:id", h.Student.UpdateStudent)
				students.DELETE("/:id", middleware.RoleAuth(adminOnly...), h.Student.DeleteStudent)
			}

			// CSV 导入
			authorized.POST("/imports/students",
				middleware.RoleAuth(staffRole...),
				middleware.RateLimit(limiter, cfg.Import.RateLimit, time.Hour, logger),
				h.Import.ImportStudents)

			// 缴费档案、付款、分期、催缴
			dossiers := authorized.Group("/dossiers", middleware.RoleAuth(staffRole...))
			{
				dossiers.GET("", h.Dossier.ListDossiers)
				dossiers.GET("/:id", h.Dossier.GetDossier)
				dossiers.GET("/:id/status", h.Dossier.GetStatus)
				dossiers.GET("/:id/payments", h.Payment.ListPayments)
				dossiers.GET("/:id/installments", h.Payment.ListInstallments)
				dossiers.GET("/:id/reminders", h.Reminder.ListReminders)

				finance := dossiers.Group("", middleware.RoleAuth(financeRole...))
				finance.POST("", h.Dossier.CreateDossier)
				finance.PUT("/:id", h.Dossier.UpdateDossier)
				finance.PUT("/:id/close", h.Dossier.CloseDossier)
				finance.POST("/:id/payments", h.Payment.RecordPayment)
				finance.POST("/:id/installments", h.Payment.GenerateSchedule)
			}

			authorized.GET("/statuses", middleware.RoleAuth(staffRole...), h.Dossier.SummarizeStatuses)
			authorized.POST("/payments/:id/void", middleware.RoleAuth(financeRole...), h.Payment.VoidPayment)
			authorized.POST("/installments/mark-overdue", middleware.RoleAuth(financeRole...), h.Payment.MarkOverdue)
			authorized.POST("/reminders/run", middleware.RoleAuth(financeRole...), h.Reminder.RunReminders)

			// 工单：所有后台角色可用
			tickets := authorized.Group("/tickets")
			{
				tickets.GET("", h.Ticket.ListTickets)
				tickets.POST("", h.Ticket.CreateTicket)
				tickets.GET("/:id", h.Ticket.GetTicket)
				tickets.PUT("/:id/status", h.Ticket.UpdateTicketStatus)
				tickets.PUT("/:id/assign", middleware.RoleAuth(adminOnly...), h.Ticket.AssignTicket)
			}

			// 学年迁移向导
			migrations := authorized.Group("/migrations", middleware.RoleAuth(adminOnly...))
			{
				migrations.GET("", h.Migration.ListMigrations)
				migrations.POST("", h.Migration.CreateMigration)
				migrations.GET("/:id", h.Migration.GetMigration)
				migrations.POST("/:id/preview", h.Migration.PreviewMigration)
				migrations.POST("/:id/apply", h.Migration.ApplyMigration)
			}

			// 导出
			export := authorized.Group("/export", middleware.RoleAuth(financeRole...))
			{
				export.GET("/statuses", h.Export.ExportStatusReport)
				export.GET("/dossiers/:id/calendar", h.Export.ExportInstallmentCalendar)
			}
		}
	}

	return r
}
