// Package testutil holds helpers shared by the fiscal engine's test suites:
// a sqlmock backed GORM handle, deterministic ids, store fixtures, an event
// recorder and JSON helpers for driving the HTTP API.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a mock postgres database closed on test cleanup
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: sqlDB}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

var testNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewTestUUID derives a reproducible UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(testNamespace, []byte(seed))
}

// TestTenantID is the tenant most tests run as
func TestTenantID() uuid.UUID {
	return NewTestUUID("test-tenant")
}

// BRL parses a decimal literal, failing the test on bad input
func BRL(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// WaitFor polls condition until it holds or timeout passes
func WaitFor(condition func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}

// Store inserts the storefront rows the tax engine only reads
type Store struct {
	t        *testing.T
	db       *gorm.DB
	TenantID uuid.UUID
}

// NewStore creates a fixture writer for one tenant
func NewStore(t *testing.T, db *gorm.DB, tenantID uuid.UUID) *Store {
	return &Store{t: t, db: db, TenantID: tenantID}
}

// Customer inserts a customer with a raw address document
func (s *Store) Customer(name, addressJSON string) *sales.Customer {
	s.t.Helper()
	c := &sales.Customer{
		ID:          uuid.New(),
		TenantID:    s.TenantID,
		Name:        name,
		AddressJSON: addressJSON,
	}
	require.NoError(s.t, s.db.WithContext(context.Background()).Create(models.CustomerModelFromDomain(c)).Error)
	return c
}

// Product inserts an active catalog product
func (s *Store) Product(name, price string) *sales.Product {
	s.t.Helper()
	p := &sales.Product{
		ID:       uuid.New(),
		TenantID: s.TenantID,
		Name:     name,
		SKU:      "SKU-" + name,
		Price:    BRL(s.t, price),
		Active:   true,
	}
	require.NoError(s.t, s.db.WithContext(context.Background()).Create(models.ProductModelFromDomain(p)).Error)
	return p
}

// OrderLine is one item of an Order fixture
type OrderLine struct {
	Product   *sales.Product
	Quantity  string
	UnitPrice string
}

// Order inserts a pending order with its items
func (s *Store) Order(number string, customer *sales.Customer, lines ...OrderLine) *sales.Order {
	s.t.Helper()
	order, err := sales.NewOrder(s.TenantID, customer.ID, number)
	require.NoError(s.t, err)
	for _, l := range lines {
		_, err := order.AddItem(l.Product.ID, BRL(s.t, l.Quantity), BRL(s.t, l.UnitPrice))
		require.NoError(s.t, err)
	}

	model := models.OrderModelFromDomain(order)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
	require.NoError(s.t, err)
	return order
}
