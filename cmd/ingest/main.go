// Command ingest runs a batch ingestion from the command line, optionally
// followed by a reconciliation run against the ingested window.
//
// Modes:
//
//	apply    write to the live tables (default)
//	shadow   write to a shadow_ prefixed copy of the schema
//	dry-run  execute inside a transaction that is always rolled back
//
// The process exits 1 when the batch resolution rate falls below
// -min-resolution, and 2 when the reconciliation total variance value
// exceeds the configured alert threshold, so schedulers can page on it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	ingestionapp "github.com/invrecon/backend/internal/application/ingestion"
	reconapp "github.com/invrecon/backend/internal/application/reconciliation"
	"github.com/invrecon/backend/internal/infrastructure/config"
	"github.com/invrecon/backend/internal/infrastructure/event"
	"github.com/invrecon/backend/internal/infrastructure/export"
	"github.com/invrecon/backend/internal/infrastructure/extract"
	"github.com/invrecon/backend/internal/infrastructure/logger"
	"github.com/invrecon/backend/internal/infrastructure/persistence"
	"github.com/invrecon/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	exitOK            = 0
	exitError         = 1
	exitVarianceAlert = 2
)

const shadowTablePrefix = "shadow_"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		tenantFlag  string
		fromFlag    string
		toFlag      string
		invoiceFlag string
		modeFlag    string
		reconcile   bool
		asOfFlag    string
		scopeFlag   string
		minRate     float64
		logLevel    string
	)

	flag.StringVar(&tenantFlag, "tenant", "", "Tenant ID (UUID, required)")
	flag.StringVar(&fromFlag, "from", "", "Start of the invoice date window, YYYY-MM-DD (required)")
	flag.StringVar(&toFlag, "to", "", "End of the invoice date window, YYYY-MM-DD (required)")
	flag.StringVar(&invoiceFlag, "invoice", "", "Restrict the batch to a single invoice number")
	flag.StringVar(&modeFlag, "mode", "apply", "Execution mode: apply, shadow or dry-run")
	flag.BoolVar(&reconcile, "reconcile", false, "Run a reconciliation after the batch completes")
	flag.StringVar(&asOfFlag, "as-of", "", "Reconciliation as-of date, YYYY-MM-DD (default: -to)")
	flag.StringVar(&scopeFlag, "scope", "*", "Reconciliation location scope, '*' or comma-separated codes")
	flag.Float64Var(&minRate, "min-resolution", 0.8, "Minimum accepted line resolution rate")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return exitError
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	tenantID, err := uuid.Parse(tenantFlag)
	if err != nil || tenantID == uuid.Nil {
		log.Error("A valid -tenant UUID is required")
		return exitError
	}
	from, err := time.Parse("2006-01-02", fromFlag)
	if err != nil {
		log.Error("Invalid -from date, expected YYYY-MM-DD", zap.String("value", fromFlag))
		return exitError
	}
	to, err := time.Parse("2006-01-02", toFlag)
	if err != nil {
		log.Error("Invalid -to date, expected YYYY-MM-DD", zap.String("value", toFlag))
		return exitError
	}
	if to.Before(from) {
		log.Error("-to must not be before -from")
		return exitError
	}
	asOf := to
	if asOfFlag != "" {
		asOf, err = time.Parse("2006-01-02", asOfFlag)
		if err != nil {
			log.Error("Invalid -as-of date, expected YYYY-MM-DD", zap.String("value", asOfFlag))
			return exitError
		}
	}
	switch modeFlag {
	case "apply", "shadow", "dry-run":
	default:
		log.Error("Invalid -mode, expected apply, shadow or dry-run", zap.String("value", modeFlag))
		return exitError
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	dbOpts := persistence.Options{
		Logger: logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
	}
	if modeFlag == "shadow" {
		dbOpts.TablePrefix = shadowTablePrefix
	}
	db, err := persistence.NewDatabaseWithOptions(&cfg.Database, dbOpts)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	ctx := context.Background()

	var store storage.ObjectStorage
	if cfg.Storage.Provider == "s3" && modeFlag == "apply" {
		store, err = storage.NewS3ObjectStorage(ctx, &cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
	} else {
		// Shadow and dry-run invocations must not publish artifacts.
		store = storage.NewStubObjectStorage()
	}

	log.Info("Batch ingestion starting",
		zap.String("tenant_id", tenantID.String()),
		zap.String("mode", modeFlag),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.String("invoice", invoiceFlag),
		zap.Bool("reconcile", reconcile),
	)

	var (
		batch     *ingestionapp.BatchResult
		runResult *reconapp.RunResult
	)
	execute := func(gdb *gorm.DB) error {
		eventBus := event.NewInMemoryEventBus(log)
		eventBus.Subscribe(event.NewAuditLogHandler(log))

		mappingRepo := persistence.NewGormMappingRepository(gdb)
		resolver := ingestionapp.NewResolver(persistence.NewGormItemRepository(gdb), mappingRepo, cfg.Ingestion.MatchThreshold, log)
		ingestionService := ingestionapp.NewService(
			persistence.NewGormDocumentRepository(gdb),
			resolver,
			extract.NewDelimitedExtractor(),
			extract.NewFilesystemSourceLister(cfg.Ingestion.SourceDir, log),
			export.NewStorageUnresolvedExporter(store, log),
			eventBus,
			nil,
			log,
		)

		batch, err = ingestionService.IngestBatch(ctx, tenantID, ingestionapp.BatchRequest{
			From:          from,
			To:            to,
			InvoiceNumber: invoiceFlag,
		}, uuid.Nil, "batch-cli")
		if err != nil {
			return err
		}

		if !reconcile {
			return nil
		}
		reconciliationService := reconapp.NewService(
			persistence.NewGormRunRepository(gdb),
			persistence.NewGormVarianceRepository(gdb),
			persistence.NewGormPhysicalSnapshotLoader(gdb),
			persistence.NewGormSystemSnapshotLoader(gdb),
			export.NewStorageArtifactWriter(store, log),
			eventBus,
			nil,
			reconapp.SnapshotPolicy(cfg.Reconciliation.SnapshotPolicy),
			log,
		)
		runResult, err = reconciliationService.Reconcile(ctx, tenantID, reconapp.RunRequest{
			AsOfDate: asOf,
			Scope:    scopeFlag,
		}, uuid.Nil, "batch-cli")
		return err
	}

	if modeFlag == "dry-run" {
		err = db.DryRun(execute)
	} else {
		err = execute(db.DB)
	}
	if err != nil {
		log.Error("Batch invocation failed", zap.Error(err))
		return exitError
	}

	log.Info("Batch ingestion finished",
		zap.String("batch_id", batch.BatchID),
		zap.Int("files_ingested", batch.FilesIngested),
		zap.Int("files_duplicate", batch.FilesDuplicate),
		zap.Int("files_failed", batch.FilesFailed),
		zap.Int("lines_parsed", batch.LinesParsed),
		zap.Int("lines_unresolved", batch.LinesUnresolved),
		zap.Float64("resolution_rate", batch.ResolutionRate()),
		zap.String("unresolved_export_ref", batch.UnresolvedExportRef),
	)
	for _, f := range batch.Failures {
		log.Warn("Document failed",
			zap.String("vendor", f.Vendor),
			zap.String("invoice_number", f.InvoiceNumber),
			zap.String("reason", f.Reason),
		)
	}
	if batch.FilesFailed > 0 && batch.FilesIngested == 0 && batch.FilesDuplicate == 0 {
		log.Error("Every document in the batch failed")
		return exitError
	}
	if batch.ResolutionRate() < minRate {
		log.Error("Resolution rate below threshold",
			zap.Float64("resolution_rate", batch.ResolutionRate()),
			zap.Float64("threshold", minRate),
		)
		return exitError
	}

	if runResult == nil {
		return exitOK
	}

	log.Info("Reconciliation finished",
		zap.String("run_number", runResult.RunNumber),
		zap.String("status", runResult.Status),
		zap.Int("items_checked", runResult.Summary.ItemsChecked),
		zap.String("total_variance_value", runResult.Summary.TotalVarianceValue.String()),
		zap.Int("over_items", runResult.Summary.OverItems),
		zap.Int("short_items", runResult.Summary.ShortItems),
		zap.String("json_artifact_ref", runResult.JSONArtifactRef),
		zap.String("csv_artifact_ref", runResult.CSVArtifactRef),
	)

	if cfg.Reconciliation.AlertVarianceValue > 0 {
		threshold := decimal.NewFromFloat(cfg.Reconciliation.AlertVarianceValue)
		if runResult.Summary.TotalVarianceValue.Abs().GreaterThan(threshold) {
			log.Warn("Total variance value exceeds alert threshold",
				zap.String("total_variance_value", runResult.Summary.TotalVarianceValue.String()),
				zap.Float64("threshold", cfg.Reconciliation.AlertVarianceValue),
			)
			return exitVarianceAlert
		}
	}
	return exitOK
}
