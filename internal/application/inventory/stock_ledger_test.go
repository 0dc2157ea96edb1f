package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/shared"
	syncdomain "github.com/shopcore/backend/internal/domain/sync"
	"github.com/shopcore/backend/internal/domain/trade"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

type ledgerMocks struct {
	products *MockProductRepository
	variants *MockVariantRepository
	orders   *MockOrderRepository
	queue    *MockQueueRepository
	scope    *NoOpTransactionScope
	ledger   *StockLedger
}

func newLedgerMocks() *ledgerMocks {
	m := &ledgerMocks{
		products: new(MockProductRepository),
		variants: new(MockVariantRepository),
		orders:   new(MockOrderRepository),
		queue:    new(MockQueueRepository),
	}
	m.scope = NewNoOpTransactionScope(m.products, m.variants, m.orders, m.queue)
	m.ledger = NewStockLedger(m.scope, zap.NewNop())
	return m
}

func newMappedVariant(t *testing.T, productID uuid.UUID, label, sku string, stock int64) *catalog.ProductVariant {
	t.Helper()
	variant, err := catalog.NewProductVariant(productID, label, sku, stock)
	require.NoError(t, err)
	require.NoError(t, variant.LinkMarketplaceOption("opt-"+sku, "cp-1001"))
	return variant
}

func newVariantLine(t *testing.T, productID, variantID uuid.UUID, name, label string, qty int64) trade.OrderItem {
	t.Helper()
	item, err := trade.NewOrderItem(uuid.New(), productID, &variantID, name, label, decimal.NewFromInt(100), qty)
	require.NoError(t, err)
	return *item
}

func newProductLine(t *testing.T, productID uuid.UUID, name string, qty int64) trade.OrderItem {
	t.Helper()
	item, err := trade.NewOrderItem(uuid.New(), productID, nil, name, "", decimal.NewFromInt(100), qty)
	require.NoError(t, err)
	return *item
}

// ---------------------------------------------------------------------------
// DeductItems
// ---------------------------------------------------------------------------

func TestStockLedger_DeductItems_VariantLine(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	productID := uuid.New()
	variant := newMappedVariant(t, productID, "Blue", "SKU-A", 5)
	variant.Stock = 3 // post-deduction state read back for the enqueue

	m.variants.On("DecrementStock", ctx, variant.ID, int64(2)).Return(nil)
	m.variants.On("SumStockByProduct", ctx, productID).Return(int64(6), nil)
	m.products.On("UpdateStock", ctx, productID, int64(6)).Return(nil)
	m.variants.On("FindByID", ctx, variant.ID).Return(variant, nil)
	m.queue.On("Save", ctx, mock.MatchedBy(func(entries []*syncdomain.QueueEntry) bool {
		if len(entries) != 1 {
			return false
		}
		e := entries[0]
		return e.IsVariantUnit() &&
			*e.VariantID == variant.ID &&
			e.TargetStock == 3 &&
			e.MarketplaceProductID == "cp-1001" &&
			*e.MarketplaceOptionID == "opt-SKU-A"
	})).Return(nil)

	err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return m.ledger.DeductItems(ctx, repos, []trade.OrderItem{
			newVariantLine(t, productID, variant.ID, "Widget", "Blue", 2),
		})
	})
	require.NoError(t, err)
	m.variants.AssertExpectations(t)
	m.products.AssertExpectations(t)
	m.queue.AssertExpectations(t)
}

func TestStockLedger_DeductItems_InsufficientStockNamesLine(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	productID := uuid.New()
	variantID := uuid.New()
	okVariantID := uuid.New()

	m.variants.On("DecrementStock", ctx, okVariantID, int64(1)).Return(nil)
	m.variants.On("DecrementStock", ctx, variantID, int64(9)).Return(shared.ErrInsufficientStock)

	err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return m.ledger.DeductItems(ctx, repos, []trade.OrderItem{
			newVariantLine(t, productID, okVariantID, "Widget", "Red", 1),
			newVariantLine(t, productID, variantID, "Widget", "Blue", 9),
		})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "line 2 (Widget / Blue)")
	m.queue.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStockLedger_DeductItems_UnmappedUnitsSkipEnqueue(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	product, err := catalog.NewProduct("Plain Widget", decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, product.SetStock(4))

	m.products.On("DecrementStock", ctx, product.ID, int64(1)).Return(nil)
	m.products.On("FindByID", ctx, product.ID).Return(product, nil)
	m.queue.On("Save", ctx, mock.MatchedBy(func(entries []*syncdomain.QueueEntry) bool {
		return len(entries) == 0
	})).Return(nil)

	err = m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return m.ledger.DeductItems(ctx, repos, []trade.OrderItem{
			newProductLine(t, product.ID, "Plain Widget", 1),
		})
	})
	require.NoError(t, err)
	m.queue.AssertExpectations(t)
}

func TestStockLedger_DeductItems_LinkedProductLineEnqueues(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	product, err := catalog.NewProduct("Linked Widget", decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, product.LinkMarketplace("mp-2001"))
	product.Stock = 7 // post-deduction state

	m.products.On("DecrementStock", ctx, product.ID, int64(3)).Return(nil)
	m.products.On("FindByID", ctx, product.ID).Return(product, nil)
	m.queue.On("Save", ctx, mock.MatchedBy(func(entries []*syncdomain.QueueEntry) bool {
		return len(entries) == 1 &&
			!entries[0].IsVariantUnit() &&
			entries[0].MarketplaceProductID == "mp-2001" &&
			entries[0].TargetStock == 7
	})).Return(nil)

	err = m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return m.ledger.DeductItems(ctx, repos, []trade.OrderItem{
			newProductLine(t, product.ID, "Linked Widget", 3),
		})
	})
	require.NoError(t, err)
	m.queue.AssertExpectations(t)
}

func TestStockLedger_DeductItems_EmptyOrderRejected(t *testing.T) {
	m := newLedgerMocks()

	err := m.scope.Execute(context.Background(), func(repos TransactionalRepositories) error {
		return m.ledger.DeductItems(context.Background(), repos, nil)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one line")
}

// ---------------------------------------------------------------------------
// RestoreItems
// ---------------------------------------------------------------------------

func TestStockLedger_RestoreItems_NoCompensatingEnqueue(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	productID := uuid.New()
	variantID := uuid.New()

	m.variants.On("IncrementStock", ctx, variantID, int64(2)).Return(nil)
	m.variants.On("SumStockByProduct", ctx, productID).Return(int64(8), nil)
	m.products.On("UpdateStock", ctx, productID, int64(8)).Return(nil)

	err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return m.ledger.RestoreItems(ctx, repos, []trade.OrderItem{
			newVariantLine(t, productID, variantID, "Widget", "Blue", 2),
		})
	})
	require.NoError(t, err)
	m.variants.AssertExpectations(t)
	m.products.AssertExpectations(t)
	m.queue.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Manual corrections
// ---------------------------------------------------------------------------

func TestStockLedger_SetVariantStock(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	productID := uuid.New()
	variant := newMappedVariant(t, productID, "Blue", "SKU-A", 5)

	m.variants.On("FindByID", ctx, variant.ID).Return(variant, nil)
	m.variants.On("Save", ctx, variant).Return(nil)
	m.variants.On("SumStockByProduct", ctx, productID).Return(int64(12), nil)
	m.products.On("UpdateStock", ctx, productID, int64(12)).Return(nil)
	m.queue.On("Save", ctx, mock.MatchedBy(func(entries []*syncdomain.QueueEntry) bool {
		return len(entries) == 1 && entries[0].TargetStock == 9 && entries[0].IsVariantUnit()
	})).Return(nil)

	updated, err := m.ledger.SetVariantStock(ctx, variant.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), updated.Stock)
	m.queue.AssertExpectations(t)
}

func TestStockLedger_SetVariantStock_NegativeRejected(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	productID := uuid.New()
	variant := newMappedVariant(t, productID, "Blue", "SKU-A", 5)
	m.variants.On("FindByID", ctx, variant.ID).Return(variant, nil)

	_, err := m.ledger.SetVariantStock(ctx, variant.ID, -1)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	m.queue.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStockLedger_SetProductStock_DerivedStockRejected(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	product, err := catalog.NewProduct("Widget", decimal.NewFromInt(50))
	require.NoError(t, err)

	m.products.On("FindByID", ctx, product.ID).Return(product, nil)
	m.variants.On("CountByProduct", ctx, product.ID).Return(int64(2), nil)

	_, err = m.ledger.SetProductStock(ctx, product.ID, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "derived from variants")
	m.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStockLedger_SetProductStock_LinkedProductEnqueues(t *testing.T) {
	m := newLedgerMocks()
	ctx := context.Background()

	product, err := catalog.NewProduct("Widget", decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, product.LinkMarketplace("mp-2001"))

	m.products.On("FindByID", ctx, product.ID).Return(product, nil)
	m.variants.On("CountByProduct", ctx, product.ID).Return(int64(0), nil)
	m.products.On("Save", ctx, product).Return(nil)
	m.queue.On("Save", ctx, mock.MatchedBy(func(entries []*syncdomain.QueueEntry) bool {
		return len(entries) == 1 &&
			entries[0].MarketplaceProductID == "mp-2001" &&
			entries[0].TargetStock == 15
	})).Return(nil)

	updated, err := m.ledger.SetProductStock(ctx, product.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(15), updated.Stock)
	m.queue.AssertExpectations(t)
}
