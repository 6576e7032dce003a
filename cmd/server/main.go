package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/erp/payables/internal/application/finance"
	"github.com/erp/payables/internal/infrastructure/cache"
	"github.com/erp/payables/internal/infrastructure/config"
	"github.com/erp/payables/internal/infrastructure/event"
	"github.com/erp/payables/internal/infrastructure/logger"
	"github.com/erp/payables/internal/infrastructure/persistence"
	"github.com/erp/payables/internal/infrastructure/telemetry"
	"github.com/erp/payables/internal/interfaces/http/handler"
	"github.com/erp/payables/internal/interfaces/http/router"
	"github.com/google/uuid"
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
		_ = log.Sync()
	}()

	log.Info("Starting payables service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("timezone", cfg.App.Location().String()),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	})
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	meter := meterProvider.Meter("github.com/erp/payables")

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
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

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Step tracker for resumable recurrence plans
	trackerFactory := cache.NewStepTrackerFactory(cfg.Recurrence.TrackerBackend, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	stepTracker, err := trackerFactory.Create(ctx)
	if err != nil {
		log.Fatal("Failed to create step tracker", zap.Error(err))
	}
	defer func() {
		if err := stepTracker.Close(); err != nil {
			log.Error("Error closing step tracker", zap.Error(err))
		}
	}()

	// Event bus
	eventBus, err := event.NewEventBus(cfg.Event, log)
	if err != nil {
		log.Fatal("Failed to create event bus", zap.Error(err))
	}
	activityHandler := financeapp.NewPayableActivityHandler(log)
	eventBus.Subscribe(activityHandler)
	log.Info("Event handlers registered",
		zap.String("transport", cfg.Event.Transport),
		zap.Strings("payable_activity_events", activityHandler.EventTypes()),
	)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	ledger, err := financeapp.NewLedgerFromConfig(cfg.Ledger)
	if err != nil {
		log.Fatal("Invalid launch type catalogue", zap.Error(err))
	}
	payableService := financeapp.NewPayableService(financeapp.PayableServiceConfig{
		Repo:            persistence.NewGormPayableEntryRepository(db.DB),
		Ledger:          ledger,
		StepTracker:     stepTracker,
		StepTrackerTTL:  cfg.Recurrence.StepTrackerTTL,
		EventPublisher:  eventBus,
		Logger:          log,
		Location:        cfg.App.Location(),
		MaxInstallments: cfg.Recurrence.MaxInstallments,
	})
	if meterProvider.IsEnabled() {
		payableMetrics, err := telemetry.NewPayableMetrics(meter)
		if err != nil {
			log.Fatal("Failed to create payable metrics", zap.Error(err))
		}
		payableService.SetPayableMetrics(payableMetrics)
	}

	// HTTP
	var defaultTenant uuid.UUID
	if cfg.HTTP.DefaultTenantID != "" {
		defaultTenant = uuid.MustParse(cfg.HTTP.DefaultTenantID)
	}
	engineCfg := router.EngineConfig{
		Logger:          log,
		ReleaseMode:     cfg.App.Env == "production",
		ServiceName:     cfg.Telemetry.ServiceName,
		TracingEnabled:  tracerProvider.IsEnabled(),
		CORSOrigins:     cfg.HTTP.CORSAllowOrigins,
		TrustedProxies:  cfg.HTTP.TrustedProxies,
		MaxBodySize:     cfg.HTTP.MaxBodySize,
		RequestTimeout:  cfg.HTTP.RequestTimeout,
		DefaultTenantID: defaultTenant,
	}
	if meterProvider.IsEnabled() {
		engineCfg.Meter = meter
	}
	engine, err := router.NewEngine(engineCfg)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(func(context.Context) error { return db.Ping() }),
	}
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		RegisterRoot(handler.NewHealthHandler(checks)).
		Register(handler.NewPayableHandler(payableService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
