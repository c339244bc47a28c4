package persistence

import (
	"context"

	apptax "github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/mestresdocafe/backend/internal/domain/tax"
	"gorm.io/gorm"
)

// GormTransactionScope implements apptax.TransactionScope using GORM transactions.
// The repositories handed to the function share one database transaction, so
// deleting old calculations, inserting new ones and updating the order either
// all commit or all roll back.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error or panics, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apptax.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories builds repositories bound to a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// CalculationRepo returns a tax calculation repository bound to the transaction
func (r *gormTransactionalRepositories) CalculationRepo() tax.TaxCalculationRepository {
	return NewGormTaxCalculationRepository(r.tx)
}

// OrderRepo returns an order repository bound to the transaction
func (r *gormTransactionalRepositories) OrderRepo() sales.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

var _ apptax.TransactionScope = (*GormTransactionScope)(nil)
var _ apptax.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
