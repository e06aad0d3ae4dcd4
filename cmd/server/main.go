package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/payrollx/internal/config"
	"github.com/JonMunkholm/payrollx/internal/core"
	"github.com/JonMunkholm/payrollx/internal/logging"
	"github.com/JonMunkholm/payrollx/internal/metrics"
	"github.com/JonMunkholm/payrollx/internal/store"
	"github.com/JonMunkholm/payrollx/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists; real environment variables win.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	fields := core.DefaultFields()
	if cfg.Extraction.AliasFile != "" {
		fields, err = core.LoadFieldSet(cfg.Extraction.AliasFile)
		if err != nil {
			slog.Error("failed to load alias overrides", "file", cfg.Extraction.AliasFile, "error", err)
			os.Exit(1)
		}
		slog.Info("alias overrides loaded", "file", cfg.Extraction.AliasFile, "fields", fields.Len())
	}

	m := metrics.New()

	svcCfg := core.ServiceConfig{
		Pipeline: core.Options{
			Fields:            fields,
			MinFields:         cfg.Extraction.MinFields,
			GrossPayFloor:     cfg.Extraction.GrossPayFloor,
			HeaderSearchRows:  cfg.Extraction.HeaderSearchRows,
			Workers:           cfg.Extraction.Workers,
			ParallelThreshold: cfg.Extraction.ParallelThreshold,
		},
		MaxFileSize:   cfg.Upload.MaxFileSize,
		RunTimeout:    cfg.Upload.Timeout,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		OutputSuffix:  cfg.Extraction.OutputSuffix,
		Observer:      m,
		Logger:        logging.FromContext,
	}

	ctx := context.Background()
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runs := store.NewRunStore(pool)
		if err := runs.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare run history", "error", err)
			os.Exit(1)
		}
		svcCfg.Store = runs
	} else {
		slog.Info("DATABASE_URL not set, keeping run history in memory", "size", core.DefaultHistorySize)
	}

	service := core.NewService(svcCfg)
	server := web.NewServer(service, cfg, m.Handler())

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for extractions to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connect opens and verifies the run-history pool.
func connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
