package integration

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/integration"
	"github.com/shopcore/backend/internal/domain/shared"
	syncdomain "github.com/shopcore/backend/internal/domain/sync"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActiveUnlinked(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindMarketplaceLinked(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CountUnlinked(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int64) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int64) error {
	args := m.Called(ctx, id, stock)
	return args.Error(0)
}

// MockVariantRepository is a mock implementation of catalog.VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.ProductVariant, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) FindMarketplaceLinked(ctx context.Context) ([]catalog.ProductVariant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) CountUnmapped(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVariantRepository) Save(ctx context.Context, variant *catalog.ProductVariant) error {
	args := m.Called(ctx, variant)
	return args.Error(0)
}

func (m *MockVariantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVariantRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockVariantRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int64) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockVariantRepository) SumStockByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVariantRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

// MockQueueRepository is a mock implementation of sync.QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) Save(ctx context.Context, entries ...*syncdomain.QueueEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.QueueEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) FindPending(ctx context.Context, limit int) ([]syncdomain.QueueEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]syncdomain.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) CountByStatus(ctx context.Context, status syncdomain.EntryStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockMarketplaceGateway is a mock implementation of
// integration.MarketplaceGateway
type MockMarketplaceGateway struct {
	mock.Mock
}

func (m *MockMarketplaceGateway) GetProduct(ctx context.Context, productID string) (*integration.MarketplaceProduct, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MarketplaceProduct), args.Error(1)
}

func (m *MockMarketplaceGateway) GetChannelProduct(ctx context.Context, channelProductID string) (*integration.MarketplaceProduct, error) {
	args := m.Called(ctx, channelProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MarketplaceProduct), args.Error(1)
}

func (m *MockMarketplaceGateway) SearchProducts(ctx context.Context, req integration.SearchRequest) (*integration.SearchPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SearchPage), args.Error(1)
}

func (m *MockMarketplaceGateway) UpdateProductStock(ctx context.Context, productID string, stock int64) error {
	args := m.Called(ctx, productID, stock)
	return args.Error(0)
}

func (m *MockMarketplaceGateway) UpdateOptionStock(ctx context.Context, channelProductID, optionID string, stock int64) error {
	args := m.Called(ctx, channelProductID, optionID, stock)
	return args.Error(0)
}

// MockImageHoster is a mock implementation of ImageHoster
type MockImageHoster struct {
	mock.Mock
}

func (m *MockImageHoster) RehostImage(ctx context.Context, sourceURL string) (string, error) {
	args := m.Called(ctx, sourceURL)
	return args.String(0), args.Error(1)
}
