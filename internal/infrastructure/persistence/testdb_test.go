package persistence

import (
	"testing"

	"github.com/mestresdocafe/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newSQLiteDB opens an in-memory database with every fiscal table migrated.
// A single connection keeps the in-memory database shared across queries.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	db := database.DB

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.NCMCodeModel{},
		&models.ProductTaxModel{},
		&models.TaxExemptionModel{},
		&models.StateTaxRateModel{},
		&models.TaxCalculationModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.ProductModel{},
		&models.CustomerModel{},
	))
	return db
}
