package main

import (
	"context"
	"fmt"
	"time"

	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/infrastructure/cache"
	"github.com/mestresdocafe/backend/internal/infrastructure/config"
	"github.com/mestresdocafe/backend/internal/infrastructure/logger"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence"
	"github.com/mestresdocafe/backend/internal/infrastructure/rules"
	"go.uber.org/zap"
)

// services is the slice of the fiscal engine the commands drive
type services struct {
	calculation *taxapp.TaxCalculationService
	seed        *taxapp.SeedService
	close       func()
}

// openServices connects to the database and wires the services without HTTP
// or event delivery. Cached rates are invalidated through Redis when enabled
// so a running server sees seeded tables.
func openServices(ctx context.Context, cfg *config.Config, log *zap.Logger) (*services, error) {
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closers := []func(){func() { _ = db.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var rateCache taxapp.RateCache
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		tiered := cache.NewTieredRateCache(
			cache.NewInMemoryRateCache(cache.WithLocalTTL(cfg.Tax.LocalCacheTTL)),
			cache.NewRedisRateCache(client, cache.WithRedisTTL(cfg.Tax.CacheTTL), cache.WithRedisLogger(log)),
			cache.WithTieredLogger(log),
			cache.WithInvalidator(cache.NewRedisInvalidator(client, cache.WithInvalidatorLogger(log))),
		)
		closers = append(closers, func() { _ = tiered.Close() })
		rateCache = tiered
	}

	ncmRepo := persistence.NewGormNCMRepository(db.DB)
	rateRepo := persistence.NewGormStateTaxRateRepository(db.DB)
	reference := taxapp.NewReferenceData(ncmRepo, rateRepo, rateCache)

	calculation := taxapp.NewTaxCalculationService(
		taxapp.CalculationRepositories{
			Orders:       persistence.NewGormOrderRepository(db.DB),
			Customers:    persistence.NewGormCustomerRepository(db.DB),
			Products:     persistence.NewGormProductRepository(db.DB),
			ProductTaxes: persistence.NewGormProductTaxRepository(db.DB),
			Exemptions:   persistence.NewGormTaxExemptionRepository(db.DB),
			Calculations: persistence.NewGormTaxCalculationRepository(db.DB),
		},
		reference,
		persistence.NewGormTransactionScope(db.DB),
		taxapp.CalculationConfig{
			OriginState:        valueobject.ParseUFOrDefault(cfg.Tax.OriginState),
			DefaultDestination: valueobject.ParseUFOrDefault(cfg.Tax.DefaultDestination),
		},
	)
	calculation.SetLogger(log)
	if cfg.Tax.RulesEnabled {
		calculation.SetConditionEvaluator(rules.NewEvaluator(log))
	}

	seed := taxapp.NewSeedService(
		taxapp.NewStateRateService(rateRepo, reference),
		taxapp.NewNCMService(ncmRepo, reference),
		log,
	)

	return &services{calculation: calculation, seed: seed, close: closeAll}, nil
}

// withServices runs fn with services opened from the command options
func withServices(ctx context.Context, opts *options, fn func(*services, *zap.Logger) error) error {
	log, err := opts.logger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := opts.config()
	if err != nil {
		return err
	}
	svc, err := openServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.close()
	return fn(svc, log)
}
