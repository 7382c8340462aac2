package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/bizdesk/internal/archive"
	"github.com/JonMunkholm/bizdesk/internal/cache"
	"github.com/JonMunkholm/bizdesk/internal/config"
	"github.com/JonMunkholm/bizdesk/internal/core"
	"github.com/JonMunkholm/bizdesk/internal/logging"
	"github.com/JonMunkholm/bizdesk/internal/store/postgres"
	"github.com/JonMunkholm/bizdesk/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"auth_enabled", cfg.Security.AuthEnabled(),
	)

	ctx := context.Background()

	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.New(pool)
	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	opts := []core.ServiceOption{core.WithAuditLog(store)}

	var catalog core.CatalogStore = store
	if cfg.Cache.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			// Searches still work without the cache.
			slog.Warn("search cache disabled", "error", err)
		} else {
			defer client.Close()
			catalog = cache.New(client, store, cfg.Cache.SearchTTL)
			slog.Info("search cache enabled", "ttl", cfg.Cache.SearchTTL)
		}
	}
	opts = append(opts, core.WithCatalog(catalog))

	if cfg.Storage.Enabled() {
		client, err := archive.NewClient(cfg.Storage)
		if err != nil {
			slog.Error("failed to create archive client", "error", err)
			os.Exit(1)
		}
		opts = append(opts, core.WithArchiver(archive.New(client, cfg.Storage.Bucket)))
		slog.Info("upload archive enabled", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	}

	service := core.NewService(store, store, core.ServiceConfig{
		Importer: core.ImporterOptions{
			ClientChunkSize:  cfg.Import.ClientChunkSize,
			ProductChunkSize: cfg.Import.ProductChunkSize,
			MaxFileSize:      cfg.Import.MaxFileSize,
		},
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		Timeout:       cfg.Import.Timeout,
		Retention:     cfg.Import.ResultRetention,
		PreviewRows:   cfg.Import.PreviewRows,
	}, opts...)

	for _, e := range service.Entities() {
		slog.Debug("entity registered", "entity", e.Key, "columns", len(e.Columns))
	}

	server := web.NewServer(service, cfg, store)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartAuditPruner(jobCtx, core.PruneConfig{
		RetentionDays: cfg.Import.AuditRetentionDays,
		CheckInterval: cfg.Import.AuditPruneInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.Shutdown(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
