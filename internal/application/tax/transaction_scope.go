package tax

import (
	"context"

	"github.com/mestresdocafe/backend/internal/domain/sales"
	"github.com/mestresdocafe/backend/internal/domain/tax"
)

// TransactionScope runs a unit of work atomically.
// If the function returns an error, the transaction is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the repositories written when an
// order's taxes are stored. All of them share the same database transaction.
type TransactionalRepositories interface {
	CalculationRepo() tax.TaxCalculationRepository
	OrderRepo() sales.OrderRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests and in-memory setups.
type NoOpTransactionScope struct {
	calculationRepo tax.TaxCalculationRepository
	orderRepo       sales.OrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(calculationRepo tax.TaxCalculationRepository, orderRepo sales.OrderRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		calculationRepo: calculationRepo,
		orderRepo:       orderRepo,
	}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// CalculationRepo returns the tax calculation repository
func (s *NoOpTransactionScope) CalculationRepo() tax.TaxCalculationRepository {
	return s.calculationRepo
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() sales.OrderRepository {
	return s.orderRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
