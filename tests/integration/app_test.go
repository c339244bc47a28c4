//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/mestresdocafe/backend/internal/infrastructure/cache"
	"github.com/mestresdocafe/backend/internal/infrastructure/config"
	"github.com/mestresdocafe/backend/internal/infrastructure/event"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence"
	"github.com/mestresdocafe/backend/internal/infrastructure/rules"
	"github.com/mestresdocafe/backend/internal/interfaces/http/handler"
	"github.com/mestresdocafe/backend/internal/interfaces/http/middleware"
	"github.com/mestresdocafe/backend/internal/interfaces/http/router"
	"github.com/mestresdocafe/backend/tests/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1/fiscal"

// app is the fiscal API wired the way the server wires it, on a migrated
// database and a miniredis backed rate cache
type app struct {
	db       *TestDB
	engine   *gin.Engine
	events   *testutil.EventRecorder
	store    *testutil.Store
	tenantID uuid.UUID
	client   *testutil.Client
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()
	tdb := NewTestDB(t)
	db := tdb.DB

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	rateCache := cache.NewTieredRateCache(
		cache.NewInMemoryRateCache(),
		cache.NewRedisRateCache(redisClient),
		cache.WithInvalidator(cache.NewRedisInvalidator(redisClient)),
	)
	t.Cleanup(func() { _ = rateCache.Close() })

	ncmRepo := persistence.NewGormNCMRepository(db)
	rateRepo := persistence.NewGormStateTaxRateRepository(db)
	productTaxRepo := persistence.NewGormProductTaxRepository(db)
	exemptionRepo := persistence.NewGormTaxExemptionRepository(db)
	productRepo := persistence.NewGormProductRepository(db)

	events := testutil.NewEventRecorder(
		tax.EventTypeOrderTaxesCalculated,
		tax.EventTypeTaxExemptionCreated,
		tax.EventTypeTaxExemptionDeactivated,
	)
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(events, events.EventTypes()...)
	require.NoError(t, bus.Start(ctx))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	reference := taxapp.NewReferenceData(ncmRepo, rateRepo, rateCache)
	calculation := taxapp.NewTaxCalculationService(
		taxapp.CalculationRepositories{
			Orders:       persistence.NewGormOrderRepository(db),
			Customers:    persistence.NewGormCustomerRepository(db),
			Products:     productRepo,
			ProductTaxes: productTaxRepo,
			Exemptions:   exemptionRepo,
			Calculations: persistence.NewGormTaxCalculationRepository(db),
		},
		reference,
		persistence.NewGormTransactionScope(db),
		taxapp.DefaultCalculationConfig(),
	)
	calculation.SetEventPublisher(bus)

	exemptions := taxapp.NewExemptionService(exemptionRepo)
	exemptions.SetLogger(log)
	exemptions.SetEventPublisher(bus)
	evaluator := rules.NewEvaluator(log)
	calculation.SetConditionEvaluator(evaluator)
	exemptions.SetConditionValidator(evaluator)

	require.NoError(t, middleware.SetupValidator())
	engine, err := router.NewEngine(router.EngineConfig{Logger: log, HTTP: config.HTTPConfig{MaxBodySize: 1 << 20}})
	require.NoError(t, err)

	fiscal := router.FiscalRoutes(router.FiscalHandlers{
		Tax:        handler.NewTaxHandler(calculation),
		Exemptions: handler.NewExemptionHandler(exemptions),
		NCM:        handler.NewNCMHandler(taxapp.NewNCMService(ncmRepo, reference)),
		Products:   handler.NewProductTaxHandler(taxapp.NewProductTaxService(productTaxRepo, productRepo, reference)),
		StateRates: handler.NewStateRateHandler(taxapp.NewStateRateService(rateRepo, reference)),
		Health:     handler.NewHealthHandler("integration", map[string]handler.HealthCheck{"database": tdb.Ping}),
	}, middleware.Auth(middleware.AuthConfig{AllowTenantHeader: true}))
	router.Mount(engine, fiscal)

	tenantID := uuid.New()
	return &app{
		db:       tdb,
		engine:   engine,
		events:   events,
		store:    testutil.NewStore(t, db, tenantID),
		tenantID: tenantID,
		client:   testutil.NewClient(t, engine, tenantID),
	}
}

// as returns a client for another tenant
func (a *app) as(t *testing.T, tenantID uuid.UUID) *testutil.Client {
	return testutil.NewClient(t, a.engine, tenantID)
}

func (a *app) countRows(t *testing.T, table string, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.DB.Table(table).Where(where, args...).Count(&n).Error)
	return n
}

func path(format string, args ...any) string {
	return apiPrefix + fmt.Sprintf(format, args...)
}
