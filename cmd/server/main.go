package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	ingestionapp "github.com/invrecon/backend/internal/application/ingestion"
	reconapp "github.com/invrecon/backend/internal/application/reconciliation"
	"github.com/invrecon/backend/internal/domain/catalog"
	"github.com/invrecon/backend/internal/infrastructure/cache"
	"github.com/invrecon/backend/internal/infrastructure/config"
	"github.com/invrecon/backend/internal/infrastructure/event"
	"github.com/invrecon/backend/internal/infrastructure/export"
	"github.com/invrecon/backend/internal/infrastructure/extract"
	"github.com/invrecon/backend/internal/infrastructure/logger"
	"github.com/invrecon/backend/internal/infrastructure/persistence"
	"github.com/invrecon/backend/internal/infrastructure/storage"
	"github.com/invrecon/backend/internal/infrastructure/telemetry"
	"github.com/invrecon/backend/internal/interfaces/http/handler"
	"github.com/invrecon/backend/internal/interfaces/http/middleware"
	"github.com/invrecon/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting inventory reconciliation engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithOptions(&cfg.Database, persistence.Options{Logger: gormLog})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	docRepo := persistence.NewGormDocumentRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	runRepo := persistence.NewGormRunRepository(db.DB)
	varianceRepo := persistence.NewGormVarianceRepository(db.DB)
	physLoader := persistence.NewGormPhysicalSnapshotLoader(db.DB)
	sysLoader := persistence.NewGormSystemSnapshotLoader(db.DB)

	// The mapping repository optionally sits behind a Redis read-through
	// cache so hot description lookups skip the database.
	var mappingRepo catalog.MappingRepository = persistence.NewGormMappingRepository(db.DB)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		mappingRepo = cache.NewRedisMappingRepository(mappingRepo, redisClient, cfg.Redis.MappingTTL, log)
		log.Info("Redis mapping cache enabled", zap.Duration("ttl", cfg.Redis.MappingTTL))
	}

	ctx := context.Background()

	// Object storage for run artifacts and unresolved-line exports
	var store storage.ObjectStorage
	switch cfg.Storage.Provider {
	case "s3":
		store, err = storage.NewS3ObjectStorage(ctx, &cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		log.Info("S3 object storage configured",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region),
		)
	default:
		store = storage.NewStubObjectStorage()
		log.Info("Stub object storage configured, artifacts are held in memory")
	}

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	engineMetrics, err := telemetry.NewEngineMetrics(meterProvider.Meter("invrecon"), log)
	if err != nil {
		log.Fatal("Failed to create engine metrics", zap.Error(err))
	}

	// Event bus with audit trail subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	// Application services
	resolver := ingestionapp.NewResolver(itemRepo, mappingRepo, cfg.Ingestion.MatchThreshold, log)
	ingestionService := ingestionapp.NewService(
		docRepo,
		resolver,
		extract.NewDelimitedExtractor(),
		extract.NewFilesystemSourceLister(cfg.Ingestion.SourceDir, log),
		export.NewStorageUnresolvedExporter(store, log),
		eventBus,
		engineMetrics,
		log,
	)
	reconciliationService := reconapp.NewService(
		runRepo,
		varianceRepo,
		physLoader,
		sysLoader,
		export.NewStorageArtifactWriter(store, log),
		eventBus,
		engineMetrics,
		reconapp.SnapshotPolicy(cfg.Reconciliation.SnapshotPolicy),
		log,
	)

	// Handlers
	systemHandler := handler.NewSystemHandler()
	ingestionHandler := handler.NewIngestionHandler(ingestionService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so every later log line carries it,
	// then panic recovery, request logging, CORS, body limit, tenant.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Tenant())

	// Health check endpoint (outside API versioning, tenant exempt)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	systemRoutes := router.NewGroup("/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	ingestionRoutes := router.NewGroup("/ingestion")
	ingestionRoutes.POST("/documents", ingestionHandler.IngestDocument)
	ingestionRoutes.POST("/batches", ingestionHandler.IngestBatch)
	r.Register(ingestionRoutes)

	reconciliationRoutes := router.NewGroup("/reconciliation")
	reconciliationRoutes.POST("/runs", reconciliationHandler.TriggerRun)
	reconciliationRoutes.GET("/runs", reconciliationHandler.ListRuns)
	reconciliationRoutes.GET("/runs/:id", reconciliationHandler.GetRun)
	r.Register(reconciliationRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness including database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
