package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fxapp "github.com/estudio/backend/internal/application/fx"
	planapp "github.com/estudio/backend/internal/application/plan"
	taxapp "github.com/estudio/backend/internal/application/tax"
	"github.com/estudio/backend/internal/infrastructure/cache"
	"github.com/estudio/backend/internal/infrastructure/config"
	"github.com/estudio/backend/internal/infrastructure/fxprovider"
	"github.com/estudio/backend/internal/infrastructure/logger"
	"github.com/estudio/backend/internal/infrastructure/persistence"
	"github.com/estudio/backend/internal/infrastructure/scheduler"
	"github.com/estudio/backend/internal/interfaces/http/handler"
	"github.com/estudio/backend/internal/interfaces/http/middleware"
	"github.com/estudio/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Rate cache: persistent store wrapped with a read-through layer.
	rateRepo := persistence.NewGormRateRepository(db.DB)
	rateCache, closeCache, err := cache.NewRateCacheFactory(cfg.Redis, log).Create(rateRepo)
	if err != nil {
		log.Fatal("failed to create rate cache", zap.Error(err))
	}
	defer func() { _ = closeCache() }()

	// FX resolution
	provider := fxprovider.NewClient(fxprovider.Config{
		BaseURL: cfg.FX.ProviderBaseURL,
		Token:   cfg.FX.ProviderToken,
		Timeout: cfg.FX.ProviderTimeout,
	}, log)
	resolver := fxapp.NewResolver(rateCache, provider, fxapp.ResolverConfig{
		LookbackDays:   cfg.FX.LookbackDays,
		MaxAttempts:    cfg.FX.MaxAttempts,
		InitialBackoff: cfg.FX.InitialBackoff,
	}, log)
	rateService := fxapp.NewRateService(rateCache, log)
	backfillJob := fxapp.NewBackfillJob(rateCache, resolver, fxapp.BackfillConfig{
		RequestsPerSecond: cfg.FX.BackfillRatePerSec,
	}, log)

	// Tax aggregation
	ledgerSource := persistence.NewGormLedgerSource(db.DB)
	ruleProvider := persistence.NewGormTaxRuleRepository(db.DB)
	aggregation := taxapp.NewAggregationService(ledgerSource, resolver, ruleProvider, log)

	// Payment plans
	planRepo := persistence.NewGormPaymentPlanRepository(db.DB)
	planService := planapp.NewPlanService(planRepo, log)

	// Nightly backfill
	var backfillScheduler *scheduler.BackfillScheduler
	if cfg.Scheduler.Enabled {
		backfillScheduler = scheduler.NewBackfillScheduler(backfillJob, cfg.Scheduler, log)
		backfillScheduler.Start()
		defer backfillScheduler.Stop()
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("invalid trusted proxies", zap.Error(err))
		}
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(middleware.CORSConfig{AllowOrigins: cfg.HTTP.CORSAllowOrigins}),
	)

	router.NewRouter(engine).
		Register(handler.NewSystemHandler(db, version)).
		Register(handler.NewFXHandler(resolver, rateService, backfillJob)).
		Register(handler.NewTaxHandler(aggregation)).
		Register(handler.NewPlanHandler(planService, aggregation)).
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
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
