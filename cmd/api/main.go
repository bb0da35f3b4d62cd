package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/emilythestrangee/comment-system/backend/internal/config"
	"github.com/emilythestrangee/comment-system/backend/internal/database"
	"github.com/emilythestrangee/comment-system/backend/internal/ratelimit"
	"github.com/emilythestrangee/comment-system/backend/internal/realtime"
	"github.com/emilythestrangee/comment-system/backend/internal/server"
	"github.com/emilythestrangee/comment-system/backend/internal/storage/inmemory"
	"github.com/emilythestrangee/comment-system/backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{Config: cfg, Logger: logger}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		deps.Store = inmemory.New()
	default:
		db, err := database.New(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		deps.DB = db
		deps.Store = postgres.New(db.GetDB())
	}

	hub := realtime.NewHub(logger, cfg.CORSOrigins)
	deps.Hub = hub

	if cfg.RedisURL != "" {
		client, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		logger.Info("redis connected; rate limits and events are shared")

		deps.Limiter = ratelimit.NewRedis(client)
		notifier := realtime.NewRedisNotifier(client, "", logger)
		deps.Notifier = notifier
		go func() {
			if err := notifier.Relay(ctx, hub); err != nil {
				logger.Error("event relay stopped", "error", err)
			}
		}()
	} else {
		limiter, err := ratelimit.NewMemory(0)
		if err != nil {
			logger.Error("failed to create rate limiter", "error", err)
			os.Exit(1)
		}
		deps.Limiter = limiter
	}

	srv := server.NewServer(deps)

	go func() {
		logger.Info("starting server", "address", srv.Addr, "env", cfg.Env, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
