package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/config"
	"github.com/muhamed1222/timeout-sub002/internal/api/handler"
	"github.com/muhamed1222/timeout-sub002/internal/api/middleware"
	"github.com/muhamed1222/timeout-sub002/internal/api/router"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
	"github.com/muhamed1222/timeout-sub002/internal/scheduler"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	"github.com/muhamed1222/timeout-sub002/pkg/database"
	"github.com/muhamed1222/timeout-sub002/pkg/jwt"
	applogger "github.com/muhamed1222/timeout-sub002/pkg/logger"
	"github.com/muhamed1222/timeout-sub002/pkg/redis"
	"github.com/muhamed1222/timeout-sub002/pkg/telegram"
)

func main() {
	// 1. 加载配置（本地开发时可用 .env 提供 SHIFT_* 环境变量）
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("SHIFT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("monitor_timezone", cfg.Monitor.Timezone),
	)

	// 3. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. Redis（可选）：提供跨实例巡检租约与机器人限流，不可用时降级为进程内租约
	var (
		locker  service.SweepLocker
		limiter middleware.RateLimiter
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，巡检租约降级为进程内锁，机器人接口不限流", zap.Error(err))
	} else {
		locker = rdb
		limiter = rdb
	}

	// 5. Telegram（可选）：未配置时通知只落库
	var sender service.MessageSender
	tg, err := telegram.NewSender(&cfg.Telegram, logger)
	if err != nil {
		logger.Warn("Telegram 初始化失败，通知将只落库", zap.Error(err))
	} else if tg != nil {
		sender = tg
	}

	// 6. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc, err := service.NewService(cfg, repo, locker, sender, logger)
	if err != nil {
		logger.Fatal("初始化服务失败", zap.Error(err))
	}
	h := handler.NewHandler(svc)
	engine := router.Setup(cfg, h, jwtMgr, limiter, logger)

	// 7. 巡检调度
	var sched *scheduler.MonitorScheduler
	if cfg.Monitor.Enabled {
		sched = scheduler.New(svc.Monitor, cfg.Monitor.Interval, logger)
		sched.Start(context.Background())
	} else {
		logger.Info("考勤巡检已禁用，仅可通过接口手动触发")
	}

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // 手动全局巡检可能较慢
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
