package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/config"
	"github.com/ACSKamloops/shs-engine-sub003/internal/database"
	"github.com/ACSKamloops/shs-engine-sub003/internal/logger"
	"github.com/ACSKamloops/shs-engine-sub003/internal/routes"
)

func main() {
	cfg := config.Load()
	logr := logger.New(cfg)
	db, err := database.New(cfg.DatabaseURL, cfg)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis is optional: without it layer files are served straight from disk.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logr.Warn("redis unreachable, layer cache disabled", zap.Error(err))
			rdb = nil
		}
		cancel()
	}

	r := routes.NewRouter(db, rdb, cfg, logr)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server started", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logr.Fatal("server forced to shutdown", zap.Error(err))
	}

	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
	logr.Info("server exited gracefully")
}
