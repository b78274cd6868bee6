package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/likekeeper/likekeeper/internal/db"
	"github.com/likekeeper/likekeeper/internal/enrich"
	"github.com/likekeeper/likekeeper/internal/export"
	"github.com/likekeeper/likekeeper/internal/storage"
	"github.com/likekeeper/likekeeper/pkg/config"
	"github.com/likekeeper/likekeeper/pkg/logging"
	"github.com/likekeeper/likekeeper/pkg/telemetry"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: processor <command> [flags]

Commands:
  enrich    Process one batch of unenriched posts
  cleanup   Remove orphaned screenshots and expired data
  export    Write captured posts to stdout or a file
  daemon    Run the enrichment pass on a cron schedule

`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Likekeeper Processor", zap.String("command", command))

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx := context.Background()

	switch command {
	case "enrich":
		runEnrich(ctx, cfg, database, logger)
	case "cleanup":
		runCleanup(ctx, cfg, database, logger, os.Args[2:])
	case "export":
		runExport(ctx, database, logger, os.Args[2:])
	case "daemon":
		runDaemon(cfg, database, logger)
	default:
		usage()
	}
}

func runEnrich(ctx context.Context, cfg *config.Config, database *db.DB, logger *zap.Logger) {
	enricher := enrich.New(database, cfg.Enrich.BatchSize)
	result, err := enricher.Run(ctx)
	if err != nil {
		logger.Fatal("Enrichment run failed", zap.Error(err))
	}
	logger.Info("Enrichment run finished",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed))
	if result.Failed > 0 {
		os.Exit(1)
	}
}

func runCleanup(ctx context.Context, cfg *config.Config, database *db.DB, logger *zap.Logger, args []string) {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "report what would be removed without changing anything")
	retention := fs.Int("retention-days", cfg.Enrich.RetentionDays, "remove data older than this many days (0 disables)")
	fs.Parse(args)

	blobs, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	cleanup := enrich.NewCleanup(database, blobs)
	stats, err := cleanup.Run(ctx, *retention, *dryRun)
	if err != nil {
		logger.Fatal("Cleanup run failed", zap.Error(err))
	}
	logger.Info("Cleanup run finished",
		zap.Int64("orphaned_screenshots", stats.OrphanedScreenshots),
		zap.Int64("old_posts", stats.OldPosts),
		zap.Int64("old_sessions", stats.OldSessions))
}

func runExport(ctx context.Context, database *db.DB, logger *zap.Logger, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", export.FormatJSON, "export format (json|csv)")
	output := fs.String("output", "", "output file path (default stdout)")
	fs.Parse(args)

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Fatal("Failed to create output file", zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	exporter := export.New(database)
	count, err := exporter.Export(ctx, *format, out)
	if err != nil {
		logger.Fatal("Export failed", zap.Error(err))
	}
	logger.Info("Export finished",
		zap.String("format", *format),
		zap.Int("records", count))
}

// runDaemon keeps the enrichment pass running on the configured cron
// schedule until interrupted
func runDaemon(cfg *config.Config, database *db.DB, logger *zap.Logger) {
	enricher := enrich.New(database, cfg.Enrich.BatchSize)

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Enrich.CronSpec, func() {
		result, err := enricher.Run(context.Background())
		if err != nil {
			logger.Error("Scheduled enrichment failed", zap.Error(err))
			return
		}
		if result.Processed > 0 || result.Failed > 0 {
			logger.Info("Scheduled enrichment finished",
				zap.Int("processed", result.Processed),
				zap.Int("failed", result.Failed))
		}
	})
	if err != nil {
		logger.Fatal("Invalid cron spec", zap.String("spec", cfg.Enrich.CronSpec), zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Enrichment daemon started", zap.String("spec", cfg.Enrich.CronSpec))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down daemon...")
	<-scheduler.Stop().Done()
	logger.Info("Daemon exited")
}
