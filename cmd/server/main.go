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

	"shiftboard/config"
	"shiftboard/internal/api/handler"
	"shiftboard/internal/api/router"
	"shiftboard/internal/repository"
	"shiftboard/internal/service"
	"shiftboard/internal/worker"
	"shiftboard/pkg/database"
	"shiftboard/pkg/jwt"
	applogger "shiftboard/pkg/logger"
	"shiftboard/pkg/push"
	"shiftboard/pkg/redis"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("SHIFT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("push_enabled", cfg.Push.Enabled),
		zap.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
	)

	// 3. database and migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. redis (optional: without it there is no revocation, rate limiting or cross-replica claims)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, running degraded", zap.Error(err))
			rdb = nil
		}
	}

	// 5. push transport
	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	var sender push.Sender
	if cfg.Push.Enabled {
		fcm, err := push.NewFCMSender(rootCtx, &cfg.Push, logger)
		if err != nil {
			logger.Fatal("push transport init failed", zap.Error(err))
		}
		sender = fcm
	} else {
		sender = push.NewLogSender(logger)
	}

	// 6. wiring: Repository → Service → Handler
	runner := worker.NewRunner(logger)
	deps := service.Deps{
		Repo:   repository.NewRepository(db),
		Push:   sender,
		Runner: runner,
		Logger: logger,
	}
	if rdb != nil {
		deps.Claimer = rdb
	}
	svc := service.NewService(cfg, deps)
	h := handler.NewHandler(svc)

	jwtMgr := jwt.NewManager(&cfg.Auth)
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 7. scheduled broadcasts
	var scheduler *worker.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = worker.NewScheduler(worker.DueRunnerFunc(func(ctx context.Context, now time.Time) error {
			_, err := svc.Broadcast.RunDue(ctx, now)
			return err
		}), cfg.Scheduler.Interval, logger)
		scheduler.Start(rootCtx)
	}

	// 8. HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 9. graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	// background notification fan-outs started by publishes
	if err := runner.Shutdown(ctx); err != nil {
		logger.Error("background tasks did not finish", zap.Error(err))
	}
	stopRoot()

	if err := sqlDB.Close(); err != nil {
		logger.Error("close database", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("close redis", zap.Error(err))
		}
	}

	logger.Info("stopped")
}
