// Package main runs the event dashboard HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-events/dashboard/config"
	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/auth"
	"github.com/aura-events/dashboard/internal/moderation"
	"github.com/aura-events/dashboard/internal/realtime"
	"github.com/aura-events/dashboard/internal/server"
	"github.com/aura-events/dashboard/internal/session"
	"github.com/aura-events/dashboard/pkg/redis"
	"github.com/aura-events/dashboard/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Redis is optional unless it holds the session.
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			if cfg.Session.Backend == config.SessionBackendRedis {
				logger.Fatal("redis", zap.Error(err))
			}
			logger.Warn("redis disabled", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var store session.Store
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		store = session.NewRedisStore(rdb.Client, cfg.Session.Namespace, logger)
	default:
		fs, err := session.NewFileStore(cfg.Session.Dir)
		if err != nil {
			logger.Fatal("session store", zap.Error(err))
		}
		store = fs
	}
	logger.Info("session store ready", zap.String("backend", cfg.Session.Backend))

	apiClient, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
		Tokens:  apiclient.StoreTokens{Store: store},
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("api client", zap.Error(err))
	}
	authClient := auth.NewClient(apiClient, store, logger)

	var hub *realtime.Hub
	if rdb != nil {
		pubsub := realtime.NewRedisPubSub(rdb.Client, cfg.Redis.ChannelPrefix, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}
	defer hub.Close()
	hub.SetPresenceHandler(func(board string, count int) {
		logger.Debug("board viewers", zap.String("board", board), zap.Int("count", count))
	})

	exporter, err := storage.NewExporter(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		Endpoint:             cfg.AWS.Endpoint,
		ExportBucket:         cfg.AWS.ExportBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Warn("board export disabled", zap.Error(err))
		exporter = nil
	}

	organizers := moderation.NewOrganizerBoard(apiClient, authClient, hub, logger)
	defer organizers.Close()
	events := moderation.NewEventBoard(apiClient, authClient, hub, logger)
	defer events.Close()

	deps := server.Deps{
		API:                apiClient,
		Auth:               authClient,
		Hub:                hub,
		Organizers:         organizers,
		Events:             events,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		LoginRPS:           cfg.RateLimit.LoginRPS,
		LoginBurst:         cfg.RateLimit.LoginBurst,
		Logger:             logger,
	}
	if exporter != nil {
		deps.Exporter = exporter
	}
	router := server.NewRouter(ctx, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("api", cfg.API.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
