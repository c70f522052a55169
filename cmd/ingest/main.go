package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/application/reconcile"
	"github.com/tradeflow/backend/internal/infrastructure/config"
	"github.com/tradeflow/backend/internal/infrastructure/intake"
	"github.com/tradeflow/backend/internal/infrastructure/locking"
	"github.com/tradeflow/backend/internal/infrastructure/logger"
	"github.com/tradeflow/backend/internal/infrastructure/persistence"
	"github.com/tradeflow/backend/internal/domain/shared"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	var (
		importerFlag string
		keyFlag      string
		fileFlag     string
	)
	flag.StringVar(&importerFlag, "importer", "", "Importer ID the documents belong to (required)")
	flag.StringVar(&keyFlag, "key", "", "Object storage key of the inbound document")
	flag.StringVar(&fileFlag, "file", "", "Local path of the inbound document (instead of -key)")
	flag.Parse()

	if importerFlag == "" || (keyFlag == "" && fileFlag == "") {
		fmt.Fprintln(os.Stderr, "Usage: ingest -importer <uuid> (-key <object-key> | -file <path>)")
		os.Exit(1)
	}

	importerID, err := uuid.Parse(importerFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid importer ID: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewFromSettings(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, importerID, keyFlag, fileFlag); err != nil {
		log.Fatal("ingest failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, importerID uuid.UUID, key, file string) error {
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		return err
	}
	defer db.Close()

	locks, err := locking.NewLockRegistryFactory(cfg.Redis,
		locking.WithLogger(log.Named("locks")),
		locking.WithTTL(cfg.Lock.TTL),
	).CreateRegistry()
	if err != nil {
		return err
	}
	defer locks.Close()

	lockCfg := shared.LockConfig{
		RetryAttempts: cfg.Lock.RetryAttempts,
		RetryBackoff:  cfg.Lock.RetryBackoff,
	}

	scope := persistence.NewGormTransactionScope(db.DB)
	orders := reconcile.NewOrderReconciler(scope, locks, lockCfg, log.Named("orders"))
	shipments := reconcile.NewShipmentReconciler(scope,
		persistence.NewGormShipmentRepository(db.DB),
		persistence.NewGormOrderRepository(db.DB),
		persistence.NewGormPortRepository(db.DB),
		locks, lockCfg, log.Named("shipments"))

	preprocessor, err := intake.NewCharsetPreprocessor(cfg.Intake.SourceEncoding)
	if err != nil {
		return err
	}
	processor := reconcile.NewProcessor(orders, shipments, preprocessor, log.Named("processor"))

	raw, sourcePath, err := loadDocument(ctx, cfg, log, key, file)
	if err != nil {
		return err
	}

	doc := reconcile.DocumentContext{ImporterID: importerID, SourcePath: sourcePath}
	if err := processor.ProcessDocument(ctx, doc, raw); err != nil {
		return err
	}

	log.Info("document processed",
		zap.String("source", sourcePath),
		zap.String("importer_id", importerID.String()),
	)
	return nil
}

// loadDocument reads the raw document either from object storage or
// from a local file, for reprocessing saved feeds.
func loadDocument(ctx context.Context, cfg *config.Config, log *zap.Logger, key, file string) ([]byte, string, error) {
	if file != "" {
		raw, err := os.ReadFile(file)
		return raw, file, err
	}

	fetcher, err := intake.NewS3DocumentFetcher(&cfg.Intake, intake.WithLogger(log.Named("intake")))
	if err != nil {
		return nil, "", err
	}
	raw, err := fetcher.Fetch(ctx, key)
	return raw, fmt.Sprintf("s3://%s/%s", cfg.Intake.Bucket, key), err
}
