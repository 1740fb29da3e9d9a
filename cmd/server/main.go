package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hyperzen/backend/config"
	"hyperzen/backend/internal/api/handler"
	"hyperzen/backend/internal/api/router"
	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/repository"
	"hyperzen/backend/internal/scheduler"
	"hyperzen/backend/internal/service"
	"hyperzen/backend/pkg/database"
	"hyperzen/backend/pkg/jwt"
	applogger "hyperzen/backend/pkg/logger"
	"hyperzen/backend/pkg/redis"
	"hyperzen/backend/pkg/validator"
)

func main() {
	// 1. 加载配置（HYPERZEN_CONFIG 可指定配置文件路径）
	cfg, err := config.Load(os.Getenv("HYPERZEN_CONFIG"))
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
		zap.String("academic_year", cfg.Billing.AcademicYearStart+" ~ "+cfg.Billing.AcademicYearEnd),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, applogger.GormLevel(&cfg.Log), logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，状态缓存、Token 黑名单与限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 付款状态判定策略（启动时校验，非法则拒绝启动）
	policy, err := cfg.Billing.Policy()
	if err != nil {
		logger.Fatal("付款状态策略非法", zap.Error(err))
	}
	classifier := billing.NewClassifier(policy)

	// 6. 注册自定义校验器
	if err := validator.Register(); err != nil {
		logger.Fatal("注册校验器失败", zap.Error(err))
	}

	// 7. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, classifier, logger)
	h := handler.NewHandler(svc, cfg)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 后台任务：逾期扫描 + 催缴
	var reminders scheduler.ReminderRunner
	if cfg.Reminder.Enabled {
		reminders = svc.Reminder
	}
	sched := scheduler.New(svc.Installment, reminders, cfg.Reminder.SweepInterval, logger)
	sched.Start(context.Background())

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // 导出报表耗时较长
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	sched.Stop()

	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("关闭 Redis 连接失败", zap.Error(err))
		}
	}

	logger.Info("服务器已关闭")
}
