// Command server runs the fiscal API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/infrastructure/auth"
	"github.com/mestresdocafe/backend/internal/infrastructure/cache"
	"github.com/mestresdocafe/backend/internal/infrastructure/config"
	"github.com/mestresdocafe/backend/internal/infrastructure/event"
	"github.com/mestresdocafe/backend/internal/infrastructure/logger"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence"
	"github.com/mestresdocafe/backend/internal/infrastructure/rules"
	"github.com/mestresdocafe/backend/internal/infrastructure/telemetry"
	"github.com/mestresdocafe/backend/internal/interfaces/http/handler"
	"github.com/mestresdocafe/backend/internal/interfaces/http/middleware"
	"github.com/mestresdocafe/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "path to config.toml (default: ./config.toml)")
	flag.Parse()

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	bootLog, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, bootLog); err != nil {
		bootLog.Error("Server stopped with error", zap.Error(err))
		_ = bootLog.Sync()
		os.Exit(1)
	}
	_ = bootLog.Sync()
}

func run(ctx context.Context, cfg *config.Config, bootLog *zap.Logger) error {
	// Telemetry comes first so the final logger can tee into the OTEL core
	tel, err := telemetry.Setup(ctx, telemetry.Settings{
		ServiceName:       cfg.Telemetry.ServiceName,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		Traces:            cfg.Telemetry.Enabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Metrics:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		Logs:              cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
	}, bootLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			bootLog.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	log := bootLog
	if tel.LogsEnabled() {
		log, err = logger.New(cfg.Log, tel.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
	}

	log.Info("Starting fiscal API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)),
		persistence.WithTracing(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}, log),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	rateCache, closeCache := newRateCache(ctx, cfg, redisClient, log)
	defer closeCache()

	// Repositories
	ncmRepo := persistence.NewGormNCMRepository(db.DB)
	rateRepo := persistence.NewGormStateTaxRateRepository(db.DB)
	productTaxRepo := persistence.NewGormProductTaxRepository(db.DB)
	exemptionRepo := persistence.NewGormTaxExemptionRepository(db.DB)
	calculationRepo := persistence.NewGormTaxCalculationRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(taxapp.NewOrderTaxesCalculatedHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = eventBus.Stop(stopCtx)
	}()

	// Services
	reference := taxapp.NewReferenceData(ncmRepo, rateRepo, rateCache)
	calculationService := taxapp.NewTaxCalculationService(
		taxapp.CalculationRepositories{
			Orders:       orderRepo,
			Customers:    customerRepo,
			Products:     productRepo,
			ProductTaxes: productTaxRepo,
			Exemptions:   exemptionRepo,
			Calculations: calculationRepo,
		},
		reference,
		persistence.NewGormTransactionScope(db.DB),
		taxapp.CalculationConfig{
			OriginState:        valueobject.ParseUFOrDefault(cfg.Tax.OriginState),
			DefaultDestination: valueobject.ParseUFOrDefault(cfg.Tax.DefaultDestination),
		},
	)
	calculationService.SetLogger(log)
	calculationService.SetEventPublisher(eventBus)

	exemptionService := taxapp.NewExemptionService(exemptionRepo)
	exemptionService.SetLogger(log)
	exemptionService.SetEventPublisher(eventBus)

	if cfg.Tax.RulesEnabled {
		evaluator := rules.NewEvaluator(log)
		calculationService.SetConditionEvaluator(evaluator)
		exemptionService.SetConditionValidator(evaluator)
		log.Info("Exemption conditions enabled")
	}

	taxMetrics, err := telemetry.NewTaxMetrics(telemetry.TaxMetricsConfig{
		Meter:             tel.Meter("mestresdocafe/fiscal"),
		Logger:            log,
		ExemptionProvider: telemetry.NewGormExemptionMetricsProvider(db.DB),
	})
	if err != nil {
		return err
	}
	calculationService.SetMetrics(taxMetrics)
	if tel.MetricsEnabled() {
		taxMetrics.StartPeriodicCollection(ctx, cfg.Tax.MetricsInterval)
		defer taxMetrics.Stop()
	}

	// HTTP
	if err := middleware.SetupValidator(); err != nil {
		return err
	}

	var revocations auth.RevocationList = auth.NewInMemoryRevocationList()
	if redisClient != nil {
		revocations = auth.NewRedisRevocationList(redisClient)
	}
	if cfg.JWT.AllowTenantHeader {
		log.Warn("X-Tenant-ID authentication is enabled; do not use this outside development")
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tel.TracingEnabled(),
		},
		Meter: httpMeter(tel),
	})
	if err != nil {
		return err
	}

	healthChecks := map[string]handler.HealthCheck{"database": db.Ping}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	fiscal := router.FiscalRoutes(router.FiscalHandlers{
		Tax:        handler.NewTaxHandler(calculationService),
		Exemptions: handler.NewExemptionHandler(exemptionService),
		NCM:        handler.NewNCMHandler(taxapp.NewNCMService(ncmRepo, reference)),
		Products:   handler.NewProductTaxHandler(taxapp.NewProductTaxService(productTaxRepo, productRepo, reference)),
		StateRates: handler.NewStateRateHandler(taxapp.NewStateRateService(rateRepo, reference)),
		Health:     handler.NewHealthHandler(telemetry.ServiceVersion, healthChecks),
	},
		middleware.Auth(middleware.AuthConfig{
			Tokens:            auth.NewTokenService(cfg.JWT),
			Revocations:       revocations,
			AllowTenantHeader: cfg.JWT.AllowTenantHeader,
			Logger:            log,
		}),
		middleware.SpanEnricher(),
	)
	router.Mount(engine, fiscal)
	log.Debug("Fiscal routes mounted", zap.Strings("routes", fiscal.Routes()))

	return serve(ctx, cfg.App.Port, cfg.HTTP, engine, log)
}

// newRateCache builds the two-tier cache when Redis is available and the
// in-process one otherwise. The returned func releases it.
func newRateCache(ctx context.Context, cfg *config.Config, client *redis.Client, log *zap.Logger) (taxapp.RateCache, func()) {
	local := cache.NewInMemoryRateCache(
		cache.WithLocalTTL(cfg.Tax.LocalCacheTTL),
		cache.WithInMemoryLogger(log),
	)
	if client == nil {
		return local, func() { _ = local.Close() }
	}

	invalidator := cache.NewRedisInvalidator(client, cache.WithInvalidatorLogger(log))
	tiered := cache.NewTieredRateCache(local,
		cache.NewRedisRateCache(client, cache.WithRedisTTL(cfg.Tax.CacheTTL), cache.WithRedisLogger(log)),
		cache.WithTieredLogger(log),
		cache.WithInvalidator(invalidator),
	)
	go func() {
		if err := tiered.StartInvalidationSubscription(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Cache invalidation subscription stopped", zap.Error(err))
		}
	}()
	return tiered, func() { _ = tiered.Close() }
}

func serve(ctx context.Context, port string, cfg config.HTTPConfig, engine http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:           ":" + port,
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}

// httpMeter is nil unless metrics export, so the HTTP middleware stays a
// no-op in that case
func httpMeter(p *telemetry.Providers) metric.Meter {
	if !p.MetricsEnabled() {
		return nil
	}
	return p.Meter("http.server")
}
