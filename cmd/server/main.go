package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/api/handler"
	"github.com/Koomefranklin/kise-results-backend/internal/api/router"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/database"
	"github.com/Koomefranklin/kise-results-backend/pkg/jwt"
	applogger "github.com/Koomefranklin/kise-results-backend/pkg/logger"
	"github.com/Koomefranklin/kise-results-backend/pkg/mailer"
	"github.com/Koomefranklin/kise-results-backend/pkg/redis"
	"github.com/Koomefranklin/kise-results-backend/pkg/tracker"
)

func main() {
	// 1. config
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting kise results backend",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// 4. redis holds refresh token revocations and reset codes
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	// 5. outbound integrations
	jwtMgr := jwt.NewManager(&cfg.Auth)
	mail := mailer.New(&cfg.Mail, logger)
	errTracker := tracker.New(&cfg.ErrorTracker)

	// 6. repository -> service -> handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, mail, logger)
	h := handler.NewHandler(cfg, svc)

	engine := router.Setup(cfg, h, router.Deps{
		Repo:    repo,
		JWT:     jwtMgr,
		Redis:   rdb,
		Tracker: errTracker,
		Mailer:  mail,
		Logger:  logger,
	})

	// 7. http server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if err := errTracker.Close(); err != nil {
		logger.Warn("failed to flush error tracker", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("failed to close redis", zap.Error(err))
	}

	logger.Info("server stopped")
}
