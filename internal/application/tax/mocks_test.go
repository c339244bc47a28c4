package tax

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of sales.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Order), args.Error(1)
}

func (m *MockOrderRepository) SaveTaxTotals(ctx context.Context, order *sales.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockCustomerRepository is a mock implementation of sales.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Customer), args.Error(1)
}

// MockProductRepository is a mock implementation of sales.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]sales.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Product), args.Error(1)
}

// MockProductTaxRepository is a mock implementation of tax.ProductTaxRepository
type MockProductTaxRepository struct {
	mock.Mock
}

func (m *MockProductTaxRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*tax.ProductTax, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.ProductTax), args.Error(1)
}

func (m *MockProductTaxRepository) FindByProducts(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) ([]tax.ProductTax, error) {
	args := m.Called(ctx, tenantID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.ProductTax), args.Error(1)
}

func (m *MockProductTaxRepository) Save(ctx context.Context, pt *tax.ProductTax) error {
	args := m.Called(ctx, pt)
	return args.Error(0)
}

// MockExemptionRepository is a mock implementation of tax.TaxExemptionRepository
type MockExemptionRepository struct {
	mock.Mock
}

func (m *MockExemptionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*tax.TaxExemption, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.TaxExemption), args.Error(1)
}

func (m *MockExemptionRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]tax.TaxExemption, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.TaxExemption), args.Error(1)
}

func (m *MockExemptionRepository) FindActiveByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, at time.Time) ([]tax.TaxExemption, error) {
	args := m.Called(ctx, tenantID, customerID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.TaxExemption), args.Error(1)
}

func (m *MockExemptionRepository) Save(ctx context.Context, exemption *tax.TaxExemption) error {
	args := m.Called(ctx, exemption)
	return args.Error(0)
}

// MockCalculationRepository is a mock implementation of tax.TaxCalculationRepository
type MockCalculationRepository struct {
	mock.Mock
}

func (m *MockCalculationRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]tax.TaxCalculation, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.TaxCalculation), args.Error(1)
}

func (m *MockCalculationRepository) DeleteByOrder(ctx context.Context, tenantID, orderID uuid.UUID) error {
	args := m.Called(ctx, tenantID, orderID)
	return args.Error(0)
}

func (m *MockCalculationRepository) SaveBatch(ctx context.Context, calcs []tax.TaxCalculation) error {
	args := m.Called(ctx, calcs)
	return args.Error(0)
}

func (m *MockCalculationRepository) SumBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (tax.TaxTotals, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(tax.TaxTotals), args.Error(1)
}

// MockNCMRepository is a mock implementation of tax.NCMRepository
type MockNCMRepository struct {
	mock.Mock
}

func (m *MockNCMRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*tax.NCMCode, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.NCMCode), args.Error(1)
}

func (m *MockNCMRepository) FindByCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]tax.NCMCode, error) {
	args := m.Called(ctx, tenantID, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.NCMCode), args.Error(1)
}

func (m *MockNCMRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]tax.NCMCode, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.NCMCode), args.Error(1)
}

func (m *MockNCMRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNCMRepository) Save(ctx context.Context, ncm *tax.NCMCode) error {
	args := m.Called(ctx, ncm)
	return args.Error(0)
}

// MockStateRateRepository is a mock implementation of tax.StateTaxRateRepository
type MockStateRateRepository struct {
	mock.Mock
}

func (m *MockStateRateRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]tax.StateTaxRate, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tax.StateTaxRate), args.Error(1)
}

func (m *MockStateRateRepository) FindByPair(ctx context.Context, tenantID uuid.UUID, origin, destination valueobject.UF) (*tax.StateTaxRate, error) {
	args := m.Called(ctx, tenantID, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.StateTaxRate), args.Error(1)
}

func (m *MockStateRateRepository) Save(ctx context.Context, rate *tax.StateTaxRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// recordingCache is an in-memory RateCache that counts hits
type recordingCache struct {
	rates         map[uuid.UUID][]tax.StateTaxRate
	ncm           map[string]*tax.NCMCode
	rateHits      int
	ncmHits       int
	invalidations int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		rates: make(map[uuid.UUID][]tax.StateTaxRate),
		ncm:   make(map[string]*tax.NCMCode),
	}
}

func (c *recordingCache) GetStateRates(_ context.Context, tenantID uuid.UUID) ([]tax.StateTaxRate, bool) {
	rates, ok := c.rates[tenantID]
	if ok {
		c.rateHits++
	}
	return rates, ok
}

func (c *recordingCache) SetStateRates(_ context.Context, tenantID uuid.UUID, rates []tax.StateTaxRate) {
	c.rates[tenantID] = rates
}

func (c *recordingCache) GetNCM(_ context.Context, tenantID uuid.UUID, code string) (*tax.NCMCode, bool) {
	ncm, ok := c.ncm[tenantID.String()+":"+code]
	if ok {
		c.ncmHits++
	}
	return ncm, ok
}

func (c *recordingCache) SetNCM(_ context.Context, tenantID uuid.UUID, code string, ncm *tax.NCMCode) {
	c.ncm[tenantID.String()+":"+code] = ncm
}

func (c *recordingCache) InvalidateStateRates(_ context.Context, tenantID uuid.UUID) {
	delete(c.rates, tenantID)
	c.invalidations++
}

func (c *recordingCache) InvalidateNCM(_ context.Context, _ uuid.UUID) {
	c.ncm = make(map[string]*tax.NCMCode)
	c.invalidations++
}
