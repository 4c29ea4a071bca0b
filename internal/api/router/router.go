package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/config"
	"github.com/muhamed1222/timeout-sub002/internal/api/handler"
	"github.com/muhamed1222/timeout-sub002/internal/api/middleware"
	"github.com/muhamed1222/timeout-sub002/pkg/jwt"
)

const (
	maxBodyBytes = 1 << 20

	botRateLimit  = 30 // 每个机器人账号每分钟每个路由的请求上限
	botRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时机器人路由不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))

	// 管理端：管理员与公司经理
	manage := v1.Group("")
	manage.Use(middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleManager))
	{
		shifts := manage.Group("/shifts")
		{
			shifts.GET("", h.Shift.ListShifts)
			shifts.POST("", h.Shift.CreateShift)
			shifts.POST("/start", h.Shift.StartShiftForEmployee)
			shifts.GET("/:id", h.Shift.GetShift)
			shifts.DELETE("/:id", h.Shift.DeleteShift)
			shifts.POST("/:id/start", h.Shift.StartShift)
			shifts.POST("/:id/end", h.Shift.EndShift)
			shifts.POST("/:id/cancel", h.Shift.CancelShift)
			shifts.POST("/:id/break/start", h.Shift.StartBreak)
			shifts.POST("/:id/break/end", h.Shift.EndBreak)
		}

		rules := manage.Group("/violation-rules")
		{
			rules.GET("", h.ViolationRule.ListRules)
			rules.GET("/:id", h.ViolationRule.GetRule)
			rules.POST("", h.ViolationRule.CreateRule)
			rules.PUT("/:id", h.ViolationRule.UpdateRule)
			rules.DELETE("/:id", h.ViolationRule.DeleteRule)
		}

		violations := manage.Group("/violations")
		{
			violations.GET("", h.Violation.ListViolations)
			violations.GET("/:id", h.Violation.GetViolation)
			violations.POST("", h.Violation.CreateViolation)
			violations.PUT("/:id", h.Violation.UpdateViolation)
			violations.DELETE("/:id", h.Violation.DeleteViolation)
		}

		manage.GET("/ratings", h.Rating.ListRatings)
		manage.POST("/ratings/recalculate", h.Rating.RecalculateCompany)
		manage.GET("/employees/:id/rating", h.Rating.GetEmployeeRating)
		manage.POST("/employees/:id/rating/recalculate", h.Rating.RecalculateEmployee)
		manage.GET("/employees/:id/notifications", h.Notification.ListEmployeeNotifications)

		exceptions := manage.Group("/exceptions")
		{
			exceptions.GET("", h.Exception.ListExceptions)
			exceptions.GET("/:id", h.Exception.GetException)
			exceptions.POST("/:id/resolve", h.Exception.ResolveException)
		}

		manage.POST("/monitor/companies/:id/process", h.Monitor.ProcessCompany)
		manage.POST("/monitor/sweep", middleware.RoleAuth(jwt.RoleAdmin), h.Monitor.RunGlobalSweep)
	}

	// 聊天机器人网关：以员工的聊天账号操作其当前班次
	bot := v1.Group("/bot")
	bot.Use(middleware.RoleAuth(jwt.RoleBot, jwt.RoleAdmin))
	bot.Use(middleware.RateLimit(limiter, botRateLimit, botRateWindow, logger))
	{
		bot.POST("/shift/current", h.Bot.CurrentShift)
		bot.POST("/shift/start", h.Bot.StartShift)
		bot.POST("/shift/end", h.Bot.EndShift)
		bot.POST("/break/start", h.Bot.StartBreak)
		bot.POST("/break/end", h.Bot.EndBreak)
	}

	return r
}
