// Command importer imports the files waiting in an uploads directory.
//
//	importer -root ./uploads -entity products -format semicolon
//
// The root holds one subdirectory per entity. Files already imported are
// skipped unless -force is given. The exit status is 1 when any file failed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/bizdesk/internal/config"
	"github.com/JonMunkholm/bizdesk/internal/core"
	"github.com/JonMunkholm/bizdesk/internal/dirimport"
	"github.com/JonMunkholm/bizdesk/internal/logging"
	"github.com/JonMunkholm/bizdesk/internal/store/postgres"
)

func main() {
	root := flag.String("root", "uploads", "uploads directory with one subdirectory per entity")
	entity := flag.String("entity", "", "only import this entity (products or clients)")
	format := flag.String("format", "", "delimiter: semicolon, comma or empty to detect")
	userID := flag.String("user", "", "user bound to client rows without a user_id column")
	force := flag.Bool("force", false, "import files even if they were imported before")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg := config.MustLoad()
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	opts := dirimport.Options{Format: *format, UserID: *userID, Force: *force}
	if *entity != "" {
		e, ok := core.ParseEntity(*entity)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown entity %q\n", *entity)
			os.Exit(2)
		}
		opts.Entities = []core.Entity{e}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	service := core.NewService(store, store, core.ServiceConfig{
		Importer: core.ImporterOptions{
			ClientChunkSize:  cfg.Import.ClientChunkSize,
			ProductChunkSize: cfg.Import.ProductChunkSize,
			MaxFileSize:      cfg.Import.MaxFileSize,
		},
		MaxConcurrent: 1,
		Timeout:       cfg.Import.Timeout,
	}, core.WithAuditLog(store))

	results, err := dirimport.Run(ctx, service, *root, opts)

	failed := 0
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Printf("SKIP  %s\n", r.Path)
		case r.Err != nil:
			failed++
			fmt.Printf("FAIL  %s: %s\n", r.Path, core.FormatUserError(r.Err))
		default:
			fmt.Printf("OK    %s: %s\n", r.Path, r.Report.Summary())
		}
	}

	if err != nil {
		slog.Error("import run stopped", "error", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
