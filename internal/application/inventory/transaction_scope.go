package inventory

import (
	"context"

	"github.com/shopcore/backend/internal/domain/catalog"
	syncdomain "github.com/shopcore/backend/internal/domain/sync"
	"github.com/shopcore/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories a stock
// mutation touches. When a function is executed within a transaction scope,
// all repository operations are part of the same database transaction and
// are committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All repositories returned share the same underlying database
// transaction, so an order row, its stock deductions and the sync queue
// entries it produces either all land or none do.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// VariantRepo returns the variant repository scoped to the current transaction
	VariantRepo() catalog.VariantRepository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() trade.OrderRepository
	// QueueRepo returns the sync queue repository scoped to the current transaction
	QueueRepo() syncdomain.QueueRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing with mock repositories.
type NoOpTransactionScope struct {
	productRepo catalog.ProductRepository
	variantRepo catalog.VariantRepository
	orderRepo   trade.OrderRepository
	queueRepo   syncdomain.QueueRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	variantRepo catalog.VariantRepository,
	orderRepo trade.OrderRepository,
	queueRepo syncdomain.QueueRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo: productRepo,
		variantRepo: variantRepo,
		orderRepo:   orderRepo,
		queueRepo:   queueRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// VariantRepo returns the variant repository.
func (s *NoOpTransactionScope) VariantRepo() catalog.VariantRepository {
	return s.variantRepo
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() trade.OrderRepository {
	return s.orderRepo
}

// QueueRepo returns the sync queue repository.
func (s *NoOpTransactionScope) QueueRepo() syncdomain.QueueRepository {
	return s.queueRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
