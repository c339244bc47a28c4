package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taxapp "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/interfaces/http/dto"
	"github.com/mestresdocafe/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// testRouter builds an engine that resolves the tenant from X-Tenant-ID
func testRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Auth(middleware.AuthConfig{AllowTenantHeader: true}))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, tenantID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenantID != uuid.Nil {
		req.Header.Set(middleware.HeaderTenantID, tenantID.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// MockTaxCalculationService mocks TaxCalculationService
type MockTaxCalculationService struct {
	mock.Mock
}

func (m *MockTaxCalculationService) CalculateOrderTaxes(ctx context.Context, tenantID, orderID uuid.UUID, req taxapp.CalculateOrderTaxesRequest) (*taxapp.OrderTaxesResponse, error) {
	args := m.Called(ctx, tenantID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.OrderTaxesResponse), args.Error(1)
}

func (m *MockTaxCalculationService) GetOrderTaxes(ctx context.Context, tenantID, orderID uuid.UUID) (*taxapp.OrderTaxesResponse, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.OrderTaxesResponse), args.Error(1)
}

func (m *MockTaxCalculationService) CheckCompliance(ctx context.Context, tenantID, orderID uuid.UUID) (*taxapp.ComplianceResponse, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.ComplianceResponse), args.Error(1)
}

func (m *MockTaxCalculationService) QuoteLine(ctx context.Context, tenantID uuid.UUID, req taxapp.QuoteRequest) (*taxapp.TaxCalculationResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxCalculationResponse), args.Error(1)
}

func (m *MockTaxCalculationService) TaxSummary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*taxapp.TaxSummaryResponse, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.TaxSummaryResponse), args.Error(1)
}

// MockExemptionService mocks ExemptionService
type MockExemptionService struct {
	mock.Mock
}

func (m *MockExemptionService) Create(ctx context.Context, tenantID uuid.UUID, req taxapp.CreateExemptionRequest) (*taxapp.ExemptionResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.ExemptionResponse), args.Error(1)
}

func (m *MockExemptionService) Deactivate(ctx context.Context, tenantID, id uuid.UUID, req taxapp.DeactivateExemptionRequest) (*taxapp.ExemptionResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.ExemptionResponse), args.Error(1)
}

func (m *MockExemptionService) Extend(ctx context.Context, tenantID, id uuid.UUID, until time.Time) (*taxapp.ExemptionResponse, error) {
	args := m.Called(ctx, tenantID, id, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.ExemptionResponse), args.Error(1)
}

func (m *MockExemptionService) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, activeAt *time.Time) ([]taxapp.ExemptionResponse, error) {
	args := m.Called(ctx, tenantID, customerID, activeAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]taxapp.ExemptionResponse), args.Error(1)
}

// MockNCMService mocks NCMService
type MockNCMService struct {
	mock.Mock
}

func (m *MockNCMService) Save(ctx context.Context, tenantID uuid.UUID, req taxapp.SaveNCMRequest) (*taxapp.NCMResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.NCMResponse), args.Error(1)
}

func (m *MockNCMService) Get(ctx context.Context, tenantID uuid.UUID, code string) (*taxapp.NCMResponse, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.NCMResponse), args.Error(1)
}

func (m *MockNCMService) List(ctx context.Context, tenantID uuid.UUID, filter taxapp.NCMListFilter) ([]taxapp.NCMResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]taxapp.NCMResponse), args.Get(1).(int64), args.Error(2)
}

// MockProductTaxService mocks ProductTaxService
type MockProductTaxService struct {
	mock.Mock
}

func (m *MockProductTaxService) Save(ctx context.Context, tenantID, productID uuid.UUID, req taxapp.SaveProductTaxRequest) (*taxapp.ProductTaxResponse, error) {
	args := m.Called(ctx, tenantID, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.ProductTaxResponse), args.Error(1)
}

func (m *MockProductTaxService) Get(ctx context.Context, tenantID, productID uuid.UUID) (*taxapp.ProductTaxResponse, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.ProductTaxResponse), args.Error(1)
}

// MockStateRateService mocks StateRateService
type MockStateRateService struct {
	mock.Mock
}

func (m *MockStateRateService) Save(ctx context.Context, tenantID uuid.UUID, req taxapp.SaveStateRateRequest) (*taxapp.StateRateResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxapp.StateRateResponse), args.Error(1)
}

func (m *MockStateRateService) List(ctx context.Context, tenantID uuid.UUID) ([]taxapp.StateRateResponse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]taxapp.StateRateResponse), args.Error(1)
}
