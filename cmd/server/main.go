// cmd/server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"detox-form-api/internal/common/auth"
	"detox-form-api/internal/common/config"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/common/observability"
	"detox-form-api/internal/guard"
	"detox-form-api/internal/notify"
	"detox-form-api/internal/server"
	"detox-form-api/internal/sheets"
	"detox-form-api/internal/stats"
	"detox-form-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting detox form API...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if err := createDirectories(cfg); err != nil {
		zapLog.Fatal("directory setup failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.New(cfg.Storage.DataDir, log)
	if err != nil {
		zapLog.Fatal("store init failed", zap.Error(err))
	}

	// --- Duplicate guard: in-process map or shared Redis ---
	var g guard.Guard
	switch cfg.Guard.Backend {
	case "redis":
		rg, err := guard.NewRedis(ctx, cfg.Redis, config.GetDuration(cfg.Guard.Cooldown))
		if err != nil {
			zapLog.Fatal("redis guard init failed", zap.Error(err))
		}
		defer rg.Close()
		g = rg
		zapLog.Info("duplicate guard using redis", zap.String("address", cfg.Redis.Address))
	default:
		g = guard.NewMemory(ctx,
			config.GetDuration(cfg.Guard.Cooldown),
			config.GetDuration(cfg.Guard.Retention),
			config.GetDuration(cfg.Guard.SweepInterval),
			log,
		)
		zapLog.Info("duplicate guard using in-process memory")
	}

	// --- Optional integrations ---
	var mirror server.SheetMirror
	var sheetsAdmin server.SheetsAdmin
	if cfg.Sheets.Enabled {
		svc, err := sheets.NewService(ctx, cfg.Sheets, cfg.Storage.Timezone, log)
		if err != nil {
			zapLog.Fatal("sheets init failed", zap.Error(err))
		}
		mirror = svc
		sheetsAdmin = svc
		zapLog.Info("Google Sheets mirror enabled", zap.String("sheet", cfg.Sheets.SheetName))
	}

	var mailer notify.Mailer
	if cfg.Notifications.Email.Enabled {
		m, err := notify.NewEmailNotifier(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("email notifier init failed", zap.Error(err))
		}
		mailer = m
		zapLog.Info("email notifications enabled", zap.String("to", cfg.Notifications.Email.ToEmail))
	}

	tokens := auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenExpiry)
	engine := stats.New(cfg.Storage.UploadsDir, cfg.Storage.Timezone, log)

	srv := server.New(server.Deps{
		Config:       cfg,
		Logger:       log,
		Tokens:       tokens,
		Applications: server.NewApplicationHandler(st, g, mirror, mailer, log),
		Admin:        server.NewAdminHandler(cfg.Admin, tokens, st, engine, sheetsAdmin, cfg.Storage.UploadsDir, log),
		Files:        server.NewFilesHandler(cfg.Storage.UploadsDir, cfg.Uploads, log),
		Obs:          obs,
	})

	go func() {
		if err := srv.Listen(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	if err := srv.Shutdown(); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}

	zapLog.Info("Detox form API stopped gracefully")
}

// createDirectories makes sure the data, uploads and log directories exist
// before anything writes to them.
func createDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Storage.DataDir,
		filepath.Join(cfg.Storage.DataDir, "deleted"),
		cfg.Storage.UploadsDir,
		filepath.Join(cfg.Storage.UploadsDir, "deleted"),
		"logs",
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
