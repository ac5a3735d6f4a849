package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Mikbal34/muhasebe-sub003/internal/config"
	"github.com/Mikbal34/muhasebe-sub003/internal/i18n"
	"github.com/Mikbal34/muhasebe-sub003/internal/infra"
	"github.com/Mikbal34/muhasebe-sub003/internal/server"
	"github.com/Mikbal34/muhasebe-sub003/internal/users"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

func main() {
	envFile := config.LoadDotEnvUp(8)

	logger, _ := zap.NewProduction()
	if os.Getenv("APP_ENV") == "local" {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	if envFile != "" {
		logger.Info("loaded env file", zap.String("path", envFile))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if err := i18n.Load(); err != nil {
		logger.Fatal("i18n load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infraDeps, err := infra.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("infra init failed", zap.Error(err))
	}
	defer infraDeps.Close()

	if err := ensureAdmin(ctx, cfg, users.NewRepo(infraDeps.PG), logger); err != nil {
		logger.Fatal("bootstrap admin failed", zap.Error(err))
	}

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(cfg, infraDeps, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:      cfg.Server.WriteTimeout.Duration(),
	}

	go func() {
		logger.Info("http server starting", zap.String("addr", addr), zap.String("env", cfg.App.Env), zap.String("version", cfg.App.Version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// ensureAdmin creates the bootstrap admin from config on first start.
func ensureAdmin(ctx context.Context, cfg *config.Config, repo *users.Repo, logger *zap.Logger) error {
	if cfg.Security.AdminEmail == "" {
		return nil
	}
	hash, err := util.HashPassword(cfg.Security.AdminPassword)
	if err != nil {
		return err
	}
	created, err := repo.EnsureAdmin(ctx, cfg.Security.AdminEmail, cfg.Security.AdminName, hash)
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("email", cfg.Security.AdminEmail))
	}
	return nil
}
