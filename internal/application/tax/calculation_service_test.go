package tax

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testTenantID = uuid.New()
	testNow      = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
)

type calcFixture struct {
	orders       *MockOrderRepository
	customers    *MockCustomerRepository
	products     *MockProductRepository
	productTaxes *MockProductTaxRepository
	exemptions   *MockExemptionRepository
	calcs        *MockCalculationRepository
	ncm          *MockNCMRepository
	rates        *MockStateRateRepository
	publisher    *MockEventPublisher
	service      *TaxCalculationService

	order    *sales.Order
	coffeeID uuid.UUID
	filterID uuid.UUID
}

func newCalcFixture(t *testing.T) *calcFixture {
	t.Helper()
	f := &calcFixture{
		orders:       new(MockOrderRepository),
		customers:    new(MockCustomerRepository),
		products:     new(MockProductRepository),
		productTaxes: new(MockProductTaxRepository),
		exemptions:   new(MockExemptionRepository),
		calcs:        new(MockCalculationRepository),
		ncm:          new(MockNCMRepository),
		rates:        new(MockStateRateRepository),
		publisher:    new(MockEventPublisher),
		coffeeID:     uuid.New(),
		filterID:     uuid.New(),
	}

	reference := NewReferenceData(f.ncm, f.rates, nil)
	f.service = NewTaxCalculationService(CalculationRepositories{
		Orders:       f.orders,
		Customers:    f.customers,
		Products:     f.products,
		ProductTaxes: f.productTaxes,
		Exemptions:   f.exemptions,
		Calculations: f.calcs,
	}, reference, NewNoOpTransactionScope(f.calcs, f.orders), DefaultCalculationConfig())
	f.service.SetClock(func() time.Time { return testNow })
	f.service.SetEventPublisher(f.publisher)

	order, err := sales.NewOrder(testTenantID, uuid.New(), "MDC-2024-0001")
	require.NoError(t, err)
	_, err = order.AddItem(f.coffeeID, decimal.NewFromInt(2), decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	_, err = order.AddItem(f.filterID, decimal.NewFromInt(1), decimal.RequireFromString("59.90"))
	require.NoError(t, err)
	f.order = order
	return f
}

// expectReads sets up the read side of a calculation for a customer in the given address
func (f *calcFixture) expectReads(address string) {
	f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)
	f.customers.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.CustomerID).
		Return(&sales.Customer{ID: f.order.CustomerID, TenantID: testTenantID, AddressJSON: address}, nil)
	f.exemptions.On("FindActiveByCustomer", mock.Anything, testTenantID, f.order.CustomerID, testNow).
		Return([]tax.TaxExemption{}, nil).Maybe()
	f.products.On("FindByIDs", mock.Anything, testTenantID, []uuid.UUID{f.coffeeID, f.filterID}).
		Return([]sales.Product{{ID: f.coffeeID}, {ID: f.filterID}}, nil).Maybe()
	f.productTaxes.On("FindByProducts", mock.Anything, testTenantID, []uuid.UUID{f.coffeeID, f.filterID}).
		Return([]tax.ProductTax{}, nil).Maybe()
	f.rates.On("FindAllForTenant", mock.Anything, testTenantID).Return([]tax.StateTaxRate{}, nil).Maybe()
}

func (f *calcFixture) expectWrites() {
	f.calcs.On("DeleteByOrder", mock.Anything, testTenantID, f.order.ID).Return(nil)
	f.calcs.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]tax.TaxCalculation")).Return(nil)
	f.orders.On("SaveTaxTotals", mock.Anything, f.order).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	code := shared.ErrorCode(err)
	require.NotEmpty(t, code, "not a domain error: %v", err)
	return code
}

func TestCalculateOrderTaxes_Interstate(t *testing.T) {
	f := newCalcFixture(t)
	f.expectReads(`{"street":"Av. Atlântica","state":"RJ"}`)
	f.expectWrites()

	resp, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{})
	require.NoError(t, err)

	require.Len(t, resp.Lines, 2)
	coffee, filter := resp.Lines[0], resp.Lines[1]
	assert.Equal(t, "RJ", coffee.DestinationState)
	assert.Equal(t, "SP", coffee.OriginState)
	assert.Equal(t, "6102", coffee.CFOP)
	assert.Equal(t, "24", coffee.ICMS.Amount.String())
	assert.Equal(t, "12", coffee.ICMS.Rate.String())
	assert.Equal(t, "42.5", coffee.TotalTax.String())
	assert.Equal(t, "7.19", filter.ICMS.Amount.String())
	assert.Equal(t, "12.73", filter.TotalTax.String())

	assert.Equal(t, "55.23", resp.TaxAmount.String())
	assert.Equal(t, "315.13", resp.TotalAmount.String())
	assert.Equal(t, "55.23", resp.Summary.Total.String())

	f.calcs.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestCalculateOrderTaxes_OrderTaxEqualsSumOfLines(t *testing.T) {
	f := newCalcFixture(t)
	for _, price := range []string{"0.05", "10.05", "33.33", "1234.56"} {
		_, err := f.order.AddItem(f.coffeeID, decimal.RequireFromString("1.5"), decimal.RequireFromString(price))
		require.NoError(t, err)
	}
	f.expectReads(`{"uf":"BA"}`)
	f.expectWrites()

	resp, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range resp.Lines {
		sum = sum.Add(l.TotalTax)
	}
	assert.True(t, sum.Equal(resp.TaxAmount), "%s != %s", sum, resp.TaxAmount)
	assert.True(t, f.order.TaxAmount.Equal(sum))
	assert.True(t, f.order.TotalAmount.Equal(f.order.Subtotal.Add(sum)))
}

func TestCalculateOrderTaxes_PublishesAfterCommit(t *testing.T) {
	f := newCalcFixture(t)
	f.expectReads(`{"state":"SP"}`)
	f.calcs.On("DeleteByOrder", mock.Anything, testTenantID, f.order.ID).Return(nil)
	f.calcs.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("SaveTaxTotals", mock.Anything, f.order).Return(nil)

	var published []shared.DomainEvent
	f.publisher.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(1).([]shared.DomainEvent)
		}).
		Return(errors.New("bus down"))

	resp, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{})
	require.NoError(t, err, "publish failures do not fail a committed calculation")

	require.Len(t, published, 1)
	event, ok := published[0].(*tax.OrderTaxesCalculatedEvent)
	require.True(t, ok)
	assert.Equal(t, f.order.ID, event.OrderID)
	assert.Equal(t, 2, event.LineCount)
	assert.True(t, event.TaxAmount.Amount().Equal(resp.TaxAmount))
	assert.Equal(t, valueobject.UF("SP"), event.DestinationState)
}

func TestCalculateOrderTaxes_MissingProductAbortsWithoutWrites(t *testing.T) {
	f := newCalcFixture(t)
	f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)
	f.customers.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.CustomerID).
		Return(&sales.Customer{AddressJSON: `{"state":"SP"}`}, nil)
	f.exemptions.On("FindActiveByCustomer", mock.Anything, testTenantID, f.order.CustomerID, testNow).
		Return([]tax.TaxExemption{}, nil)
	f.products.On("FindByIDs", mock.Anything, testTenantID, mock.Anything).
		Return([]sales.Product{{ID: f.coffeeID}}, nil)

	_, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{})
	require.Error(t, err)
	assert.Equal(t, "PRODUCT_NOT_FOUND", domainCode(t, err))
	assert.Contains(t, err.Error(), f.filterID.String())

	f.calcs.AssertNotCalled(t, "DeleteByOrder", mock.Anything, mock.Anything, mock.Anything)
	f.calcs.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "SaveTaxTotals", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCalculateOrderTaxes_WriteFailureIsReturned(t *testing.T) {
	f := newCalcFixture(t)
	f.expectReads(`{"state":"SP"}`)
	f.calcs.On("DeleteByOrder", mock.Anything, testTenantID, f.order.ID).Return(nil)
	f.calcs.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("SaveTaxTotals", mock.Anything, f.order).Return(errors.New("connection reset"))

	_, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update order totals")
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCalculateOrderTaxes_DestinationResolution(t *testing.T) {
	tests := []struct {
		name        string
		req         CalculateOrderTaxesRequest
		customer    *sales.Customer
		custErr     error
		defaultDest valueobject.UF
		wantDest    string
		wantICMS    string
	}{
		{name: "explicit destination", req: CalculateOrderTaxesRequest{DestinationState: "mg"}, wantDest: "MG", wantICMS: "24"},
		{name: "customer address", customer: &sales.Customer{AddressJSON: `{"estado":"Paraná"}`}, wantDest: "PR", wantICMS: "24"},
		{name: "malformed address", customer: &sales.Customer{AddressJSON: `{"state":`}, wantDest: "SP", wantICMS: "36"},
		{name: "empty address", customer: &sales.Customer{}, wantDest: "SP", wantICMS: "36"},
		{name: "customer missing", custErr: shared.ErrNotFound, wantDest: "SP", wantICMS: "36"},
		{name: "explicit origin", req: CalculateOrderTaxesRequest{OriginState: "RJ"}, customer: &sales.Customer{AddressJSON: `{"state":"RJ"}`}, wantDest: "RJ", wantICMS: "36"},
		{name: "empty address uses configured default", customer: &sales.Customer{}, defaultDest: "RJ", wantDest: "RJ", wantICMS: "24"},
		{name: "malformed address uses configured default", customer: &sales.Customer{AddressJSON: `{"state":`}, defaultDest: "RJ", wantDest: "RJ", wantICMS: "24"},
		{name: "unknown state uses configured default", customer: &sales.Customer{AddressJSON: `{"state":"Atlantis"}`}, defaultDest: "RJ", wantDest: "RJ", wantICMS: "24"},
		{name: "missing customer uses configured default", custErr: shared.ErrNotFound, defaultDest: "RJ", wantDest: "RJ", wantICMS: "24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCalcFixture(t)
			if tt.defaultDest != "" {
				f.service.cfg.DefaultDestination = tt.defaultDest
			}
			f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)
			if tt.customer != nil || tt.custErr != nil {
				f.customers.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.CustomerID).Return(tt.customer, tt.custErr)
			}
			f.exemptions.On("FindActiveByCustomer", mock.Anything, testTenantID, f.order.CustomerID, testNow).Return([]tax.TaxExemption{}, nil)
			f.products.On("FindByIDs", mock.Anything, testTenantID, mock.Anything).
				Return([]sales.Product{{ID: f.coffeeID}, {ID: f.filterID}}, nil)
			f.productTaxes.On("FindByProducts", mock.Anything, testTenantID, mock.Anything).Return([]tax.ProductTax{}, nil)
			f.rates.On("FindAllForTenant", mock.Anything, testTenantID).Return([]tax.StateTaxRate{}, nil)
			f.expectWrites()

			resp, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDest, resp.Lines[0].DestinationState)
			assert.Equal(t, tt.wantICMS, resp.Lines[0].ICMS.Amount.String())
			if tt.customer == nil && tt.custErr == nil {
				f.customers.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCalculateOrderTaxes_UsesExemptionsAndNCM(t *testing.T) {
	f := newCalcFixture(t)
	f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)
	f.customers.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.CustomerID).
		Return(&sales.Customer{AddressJSON: `{"state":"SP"}`}, nil)

	exemption, err := tax.NewTaxExemption(tax.NewTaxExemptionInput{
		TenantID:   testTenantID,
		CustomerID: f.order.CustomerID,
		TaxType:    tax.TaxTypeICMS,
		Kind:       tax.ExemptionTotal,
		ValidFrom:  testNow.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	f.exemptions.On("FindActiveByCustomer", mock.Anything, testTenantID, f.order.CustomerID, testNow).
		Return([]tax.TaxExemption{*exemption}, nil)

	f.products.On("FindByIDs", mock.Anything, testTenantID, mock.Anything).
		Return([]sales.Product{{ID: f.coffeeID}, {ID: f.filterID}}, nil)
	coffeeTax, err := tax.NewProductTax(testTenantID, f.coffeeID, "09012100", tax.OriginNational)
	require.NoError(t, err)
	f.productTaxes.On("FindByProducts", mock.Anything, testTenantID, mock.Anything).
		Return([]tax.ProductTax{*coffeeTax}, nil)

	heading, err := tax.NewNCMCode(testTenantID, "0901", "Café")
	require.NoError(t, err)
	pis := valueobject.MustPercentage("0.65")
	heading.SetRates(nil, &pis, nil)
	f.ncm.On("FindByCodes", mock.Anything, testTenantID, []string{"09012100", "090121", "0901"}).
		Return([]tax.NCMCode{*heading}, nil).Once()

	f.rates.On("FindAllForTenant", mock.Anything, testTenantID).Return([]tax.StateTaxRate{}, nil)
	f.expectWrites()

	resp, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{})
	require.NoError(t, err)

	coffee := resp.Lines[0]
	assert.Equal(t, "09012100", coffee.NCMCode)
	assert.True(t, coffee.ICMS.Amount.IsZero())
	assert.Equal(t, "40", coffee.ICMS.Situation)
	assert.Equal(t, "1.3", coffee.PIS.Amount.String())
	assert.Equal(t, "40", resp.Lines[1].ICMS.Situation)
	f.ncm.AssertExpectations(t)
}

func TestCalculateOrderTaxes_Rejections(t *testing.T) {
	t.Run("order not found", func(t *testing.T) {
		f := newCalcFixture(t)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(nil, shared.ErrNotFound)
		_, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("cancelled order", func(t *testing.T) {
		f := newCalcFixture(t)
		require.NoError(t, f.order.Cancel())
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)
		_, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{})
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
	})

	t.Run("invalid origin", func(t *testing.T) {
		f := newCalcFixture(t)
		f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)
		_, err := f.service.CalculateOrderTaxes(context.Background(), testTenantID, f.order.ID, CalculateOrderTaxesRequest{OriginState: "XX"})
		assert.Equal(t, "INVALID_STATE_CODE", domainCode(t, err))
	})
}

func TestQuoteLine(t *testing.T) {
	t.Run("product price and configuration", func(t *testing.T) {
		f := newCalcFixture(t)
		f.products.On("FindByIDForTenant", mock.Anything, testTenantID, f.coffeeID).
			Return(&sales.Product{ID: f.coffeeID, Price: decimal.RequireFromString("49.90")}, nil)
		config, err := tax.NewProductTax(testTenantID, f.coffeeID, "09012100", tax.OriginNational)
		require.NoError(t, err)
		reduction := valueobject.MustPercentage("61.11")
		require.NoError(t, config.SetReducedBase(&reduction))
		f.productTaxes.On("FindByProduct", mock.Anything, testTenantID, f.coffeeID).Return(config, nil)
		f.ncm.On("FindByCodes", mock.Anything, testTenantID, mock.Anything).Return([]tax.NCMCode{}, nil)
		f.rates.On("FindAllForTenant", mock.Anything, testTenantID).Return([]tax.StateTaxRate{}, nil)

		resp, err := f.service.QuoteLine(context.Background(), testTenantID, QuoteRequest{
			ProductID: &f.coffeeID,
			Quantity:  decimal.NewFromInt(2),
		})
		require.NoError(t, err)
		assert.Equal(t, "99.8", resp.GrossAmount.String())
		// 99.80 * 38.89% = 38.81
		assert.Equal(t, "38.81", resp.ICMS.Base.String())
		assert.Equal(t, "6.99", resp.ICMS.Amount.String())
		assert.Equal(t, "20", resp.ICMS.Situation)
		assert.Equal(t, uuid.Nil, resp.OrderID)
		f.calcs.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})

	t.Run("ncm only", func(t *testing.T) {
		f := newCalcFixture(t)
		machine, err := tax.NewNCMCode(testTenantID, "84198100", "Máquinas de café expresso")
		require.NoError(t, err)
		ipi := valueobject.MustPercentage("3.25")
		machine.SetRates(&ipi, nil, nil)
		f.ncm.On("FindByCodes", mock.Anything, testTenantID, []string{"84198100", "841981", "8419"}).
			Return([]tax.NCMCode{*machine}, nil)
		f.rates.On("FindAllForTenant", mock.Anything, testTenantID).Return([]tax.StateTaxRate{}, nil)

		price := decimal.RequireFromString("4500")
		resp, err := f.service.QuoteLine(context.Background(), testTenantID, QuoteRequest{
			NCMCode:          "8419.81.00",
			UnitPrice:        &price,
			Quantity:         decimal.NewFromInt(1),
			DestinationState: "SC",
		})
		require.NoError(t, err)
		assert.Equal(t, "146.25", resp.IPI.Amount.String())
		assert.Equal(t, "50", resp.IPI.Situation)
		assert.Equal(t, "540", resp.ICMS.Amount.String())
		assert.Equal(t, "84198100", resp.NCMCode)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newCalcFixture(t)
		f.products.On("FindByIDForTenant", mock.Anything, testTenantID, f.coffeeID).Return(nil, shared.ErrNotFound)
		_, err := f.service.QuoteLine(context.Background(), testTenantID, QuoteRequest{ProductID: &f.coffeeID, Quantity: decimal.NewFromInt(1)})
		assert.Equal(t, "PRODUCT_NOT_FOUND", domainCode(t, err))
	})

	t.Run("price required without product", func(t *testing.T) {
		f := newCalcFixture(t)
		_, err := f.service.QuoteLine(context.Background(), testTenantID, QuoteRequest{Quantity: decimal.NewFromInt(1)})
		assert.Equal(t, "INVALID_PRICE", domainCode(t, err))
	})
}

func TestCheckCompliance(t *testing.T) {
	f := newCalcFixture(t)
	f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)

	calc, err := tax.NewCalculator(nil).Calculate(tax.LineInput{
		TenantID:    testTenantID,
		OrderID:     f.order.ID,
		UnitPrice:   valueobject.NewMoneyBRL(decimal.NewFromInt(10)),
		Quantity:    decimal.NewFromInt(1),
		Origin:      "SP",
		Destination: "SP",
		At:          testNow,
	})
	require.NoError(t, err)
	f.calcs.On("FindByOrder", mock.Anything, testTenantID, f.order.ID).Return([]tax.TaxCalculation{*calc}, nil)

	resp, err := f.service.CheckCompliance(context.Background(), testTenantID, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, resp.OrderID)
	assert.Equal(t, 4, resp.TotalChecks)
	assert.Equal(t, tax.ComplianceCompliant, resp.Level)
}

func TestCheckCompliance_NotCalculated(t *testing.T) {
	f := newCalcFixture(t)
	f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)
	f.calcs.On("FindByOrder", mock.Anything, testTenantID, f.order.ID).Return([]tax.TaxCalculation{}, nil)

	_, err := f.service.CheckCompliance(context.Background(), testTenantID, f.order.ID)
	assert.Equal(t, "TAXES_NOT_CALCULATED", domainCode(t, err))
}

func TestGetOrderTaxes(t *testing.T) {
	f := newCalcFixture(t)
	f.orders.On("FindByIDForTenant", mock.Anything, testTenantID, f.order.ID).Return(f.order, nil)
	f.calcs.On("FindByOrder", mock.Anything, testTenantID, f.order.ID).Return([]tax.TaxCalculation{}, nil)

	resp, err := f.service.GetOrderTaxes(context.Background(), testTenantID, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "MDC-2024-0001", resp.OrderNumber)
	assert.Empty(t, resp.Lines)
	assert.Equal(t, 0, resp.Summary.Lines)
}

func TestTaxSummary(t *testing.T) {
	f := newCalcFixture(t)
	from := testNow.AddDate(0, -1, 0)

	_, err := f.service.TaxSummary(context.Background(), testTenantID, testNow, from)
	assert.Equal(t, "INVALID_PERIOD", domainCode(t, err))

	totals := tax.TaxTotals{
		ICMS:   valueobject.NewMoneyBRL(decimal.RequireFromString("180")),
		PIS:    valueobject.NewMoneyBRL(decimal.RequireFromString("16.5")),
		COFINS: valueobject.NewMoneyBRL(decimal.RequireFromString("76")),
		IPI:    valueobject.ZeroBRL(),
		Total:  valueobject.NewMoneyBRL(decimal.RequireFromString("272.5")),
		Gross:  valueobject.NewMoneyBRL(decimal.RequireFromString("1000")),
		Lines:  7,
	}
	f.calcs.On("SumBetween", mock.Anything, testTenantID, from, testNow).Return(totals, nil)

	resp, err := f.service.TaxSummary(context.Background(), testTenantID, from, testNow)
	require.NoError(t, err)
	assert.Equal(t, "272.5", resp.Total.String())
	assert.Equal(t, 7, resp.Lines)
}
