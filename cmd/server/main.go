package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	perceptionapp "github.com/erp/perception/internal/application/perception"
	"github.com/erp/perception/internal/domain/perception"
	"github.com/erp/perception/internal/domain/tax"
	"github.com/erp/perception/internal/infrastructure/cache"
	"github.com/erp/perception/internal/infrastructure/config"
	"github.com/erp/perception/internal/infrastructure/event"
	"github.com/erp/perception/internal/infrastructure/logger"
	"github.com/erp/perception/internal/infrastructure/persistence"
	"github.com/erp/perception/internal/infrastructure/seed"
	"github.com/erp/perception/internal/infrastructure/telemetry"
	"github.com/erp/perception/internal/interfaces/http/handler"
	"github.com/erp/perception/internal/interfaces/http/middleware"
	"github.com/erp/perception/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Log export; entries are teed to the collector once the provider is up
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if logsProvider.IsEnabled() {
		logCfg.Tee = []zapcore.Core{telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: logsProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		})}
		if log, err = logger.New(logCfg); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting perception service",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("fiscal_localization", cfg.Perception.FiscalLocalization),
	)

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Telemetry
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	metrics, err := telemetry.NewPerceptionMetrics(meterProvider.Meter("perception"))
	if err != nil {
		log.Fatal("Failed to register perception metrics", zap.Error(err))
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem(cfg.Database.Driver),
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	partyRepo := persistence.NewGormPartyRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	taxRepo := persistence.NewGormTaxRepository(db.DB)

	taxCache, err := cache.NewTaxCache(cfg.Cache, cfg.Redis, log, cfg.App.Env != "production")
	if err != nil {
		log.Fatal("Failed to initialize tax cache", zap.Error(err))
	}
	defer func() {
		_ = taxCache.Close()
	}()
	taxRegistry := cache.NewTaxRegistry(taxRepo, taxCache, cfg.Cache.TTL, log)

	defaultTenant, err := uuid.Parse(cfg.Perception.DefaultTenantID)
	if err != nil {
		log.Fatal("Invalid perception.default_tenant_id", zap.Error(err))
	}
	if cfg.Seed.Enabled {
		catalog, err := seed.Load(cfg.Seed.Path)
		if err != nil {
			log.Fatal("Failed to load seed catalogue", zap.Error(err))
		}
		res, err := seed.NewSeeder(accountRepo, taxRegistry, log).Apply(ctx, defaultTenant, catalog)
		if err != nil {
			log.Fatal("Failed to seed fiscal catalogue", zap.Error(err))
		}
		log.Info("Fiscal catalogue seeded",
			zap.Int("accounts_created", res.AccountsCreated),
			zap.Int("taxes_created", res.TaxesCreated),
			zap.Int("taxes_updated", res.TaxesUpdated),
		)
	}

	// Perception engine, event wiring and application service
	engine := perception.NewEngine(
		perceptionapp.NewPartyDirectory(partyRepo, cfg.Perception.FiscalLocalization),
		perceptionapp.NewProductDirectory(productRepo),
		taxRegistry,
		tax.NewPercentSplitter(),
		perception.WithLogger(log),
		perception.WithRecorder(metrics),
	)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(perceptionapp.NewDocumentChangedHandler(documentRepo, engine, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	perceptionService := perceptionapp.NewService(
		documentRepo, partyRepo, accountRepo, taxRegistry, engine,
		perceptionapp.WithEventPublisher(eventBus),
		perceptionapp.WithLogger(log),
	)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	httpEngine := gin.New()
	httpEngine.Use(middleware.RequestID())
	httpEngine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	})...)
	httpEngine.Use(logger.GinMiddleware(log))
	httpEngine.Use(logger.Recovery(log))

	httpEngine.GET("/health", healthHandler(db))

	router.NewRouter(httpEngine, router.WithAPIVersion("v1")).
		Register(handler.NewPerceptionHandler(perceptionService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        httpEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not stop cleanly", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func dbSystem(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}

// healthHandler reports database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
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
