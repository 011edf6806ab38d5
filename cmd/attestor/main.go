package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/attestly/attestor/internal/ai"
	"github.com/attestly/attestor/internal/api"
	"github.com/attestly/attestor/internal/audit"
	"github.com/attestly/attestor/internal/blob"
	"github.com/attestly/attestor/internal/catalog"
	"github.com/attestly/attestor/internal/config"
	"github.com/attestly/attestor/internal/database"
	"github.com/attestly/attestor/internal/evidence"
	"github.com/attestly/attestor/internal/export"
	"github.com/attestly/attestor/internal/gaps"
	"github.com/attestly/attestor/internal/metrics"
)

func main() {
	configPath := flag.String("config", "attestor.yaml", "path to config file")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// Stores: Postgres when configured, in-memory otherwise.
	var db *database.Postgres
	var cat catalog.Catalog
	var evidenceStore evidence.Store
	var resultStore gaps.Store
	var recordStore export.RecordStore
	var auditLog audit.Logger

	if cfg.Database.Enabled {
		db, err = database.NewPostgres(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer func() { _ = db.Close() }()

		if err := db.CreateTables(ctx); err != nil {
			logger.Fatal("failed to create tables", zap.Error(err))
		}

		pgCatalog := catalog.NewPostgresCatalog(db)
		frameworks, controls := catalog.SeedData()
		if err := pgCatalog.Sync(ctx, frameworks, controls); err != nil {
			logger.Fatal("failed to sync catalog", zap.Error(err))
		}

		cat = pgCatalog
		evidenceStore = evidence.NewPostgresStore(db)
		resultStore = gaps.NewPostgresStore(db)
		recordStore = export.NewPostgresRecordStore(db)
		auditLog = audit.NewService(db)
		logger.Info("using postgres stores",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
	} else {
		cat = catalog.NewMemoryCatalog()
		evidenceStore = evidence.NewMemoryStore()
		resultStore = gaps.NewMemoryStore()
		recordStore = export.NewMemoryRecordStore()
		auditLog = audit.NewMemoryLogger()
		logger.Info("using in-memory stores")
	}

	// Blob storage for evidence attachments.
	var blobs blob.Store
	switch cfg.Storage.Backend {
	case "local", "":
		blobs, err = blob.NewLocalStore(cfg.Storage.Local.Path, logger)
		if err != nil {
			logger.Fatal("failed to create local blob store", zap.Error(err))
		}
		logger.Info("using local blob storage", zap.String("path", cfg.Storage.Local.Path))
	case "s3":
		blobs, err = blob.NewS3Store(ctx, cfg.Storage.S3.Bucket, cfg.Storage.S3.Endpoint,
			cfg.Storage.S3.AccessKey, cfg.Storage.S3.SecretKey, cfg.Storage.S3.Region, logger)
		if err != nil {
			logger.Fatal("failed to create s3 blob store", zap.Error(err))
		}
		logger.Info("using s3 blob storage", zap.String("bucket", cfg.Storage.S3.Bucket))
	default:
		logger.Fatal("invalid storage backend", zap.String("backend", cfg.Storage.Backend))
	}

	// Optional AI enhancement; analysis runs deterministically without it.
	var enhancer *gaps.Enhancer
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		completer, err := ai.NewGeminiCompleter(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			logger.Warn("ai enhancement disabled", zap.Error(err))
		} else {
			defer func() { _ = completer.Close() }()
			enhancer = gaps.NewEnhancer(completer, logger)
			logger.Info("ai enhancement enabled", zap.String("model", cfg.AI.Model))
		}
	}

	analyzer := gaps.NewAnalyzer(cat, evidenceStore, enhancer, logger)
	assembler := export.NewAssembler(cat, evidenceStore, blobs, recordStore,
		auditLog, cfg.Export.OutputDir, logger)

	handler := api.NewHandler(cat, evidenceStore, analyzer, resultStore, assembler, auditLog, logger)
	server := api.NewServer(cfg, logger, handler, metrics.Handler(), db)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
