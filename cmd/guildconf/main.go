package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guildconf/internal/audit"
	"guildconf/internal/bot"
	"guildconf/internal/config"
	"guildconf/internal/server"
	"guildconf/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	backend, err := storage.Open(context.Background(), cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		logger.Fatal("storage init failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	store := storage.New(backend, storage.Options{CacheTTL: cfg.CacheTTL(), Logger: logger})
	defer store.Close()

	var recorder storage.AuditRecorder
	if r, ok := backend.(storage.AuditRecorder); ok {
		recorder = r
	}
	auditLogger := audit.NewLogger(recorder, logger)

	retentionCtx, stopRetention := context.WithCancel(context.Background())
	defer stopRetention()
	go auditLogger.RunRetention(retentionCtx, cfg.Audit.RetentionDays, time.Hour)

	botSvc, err := bot.New(cfg, logger, store, auditLogger)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started", zap.String("storage", cfg.Storage.Driver))

	var httpServer *http.Server
	if cfg.Health.Enabled {
		httpServer = &http.Server{
			Addr:              cfg.Health.Addr,
			Handler:           server.NewRouter(auditLogger, cfg.Health.AuditToken, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(ctx)
	}
	botSvc.Close(ctx)
}
