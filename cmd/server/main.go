package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	inventoryapp "github.com/vaxtrack/backend/internal/application/inventory"
	schedulingapp "github.com/vaxtrack/backend/internal/application/scheduling"
	"github.com/vaxtrack/backend/internal/infrastructure/cache"
	"github.com/vaxtrack/backend/internal/infrastructure/config"
	"github.com/vaxtrack/backend/internal/infrastructure/event"
	"github.com/vaxtrack/backend/internal/infrastructure/logger"
	"github.com/vaxtrack/backend/internal/infrastructure/persistence"
	"github.com/vaxtrack/backend/internal/infrastructure/scheduler"
	"github.com/vaxtrack/backend/internal/interfaces/http/handler"
	"github.com/vaxtrack/backend/internal/interfaces/http/middleware"
	"github.com/vaxtrack/backend/internal/interfaces/http/router"
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

	log.Info("Starting VaxTrack Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with zap-backed GORM logging
	db, err := persistence.NewDatabaseWithLogger(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Transaction scopes carry the per-transaction lock wait bound
	inventoryScope := persistence.NewGormInventoryTransactionScope(db.DB(), cfg.Scheduling.LockTimeout)
	schedulingScope := persistence.NewGormSchedulingTransactionScope(db.DB(), cfg.Scheduling.LockTimeout)

	// Application services
	inventoryService := inventoryapp.NewInventoryService(inventoryScope)
	reconciliationService := inventoryapp.NewReconciliationService(inventoryScope, logger.Named(log, "reconciliation"))
	schedulingService := schedulingapp.NewService(schedulingScope, schedulingapp.Options{
		SplitRemainderOnPartial: cfg.Scheduling.SplitRemainderOnPartial,
		IdempotencyTTL:          cfg.Scheduling.IdempotencyTTL,
	}, logger.Named(log, "scheduling"))

	// Idempotency store backs reservation retries. Redis when reachable,
	// in-process fallback otherwise so a dev box needs no Redis.
	idempotencyStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		memStore := cache.NewInMemoryIdempotencyStore()
		defer func() { _ = memStore.Close() }()
		schedulingService.SetIdempotencyStore(memStore)
	} else {
		defer func() { _ = idempotencyStore.Close() }()
		schedulingService.SetIdempotencyStore(idempotencyStore)
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	inventoryService.SetEventPublisher(eventBus)
	schedulingService.SetEventPublisher(eventBus)

	// Periodic ledger reconciliation (if enabled)
	if cfg.Scheduler.Enabled {
		reconciliationScheduler := scheduler.NewReconciliationScheduler(
			reconciliationService,
			scheduler.ReconciliationSchedulerConfig{
				Enabled:    cfg.Scheduler.Enabled,
				Interval:   cfg.Scheduler.ReconciliationInterval,
				JobTimeout: cfg.Scheduler.JobTimeout,
			},
			logger.Named(log, "scheduler"),
		)
		if err := reconciliationScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
		}
		defer reconciliationScheduler.Stop()
		log.Info("Reconciliation scheduler started",
			zap.Duration("interval", cfg.Scheduler.ReconciliationInterval),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(db)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, reconciliationService)
	schedulingHandler := handler.NewSchedulingHandler(schedulingService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(systemHandler).
		Register(inventoryHandler).
		Register(schedulingHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}
	log.Info("Server exited")
}
