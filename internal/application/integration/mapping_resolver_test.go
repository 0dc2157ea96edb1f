package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/integration"
)

type resolverMocks struct {
	variantRepo *MockVariantRepository
	resolver    *MappingResolver
}

func newResolverMocks(t *testing.T) *resolverMocks {
	t.Helper()
	m := &resolverMocks{variantRepo: new(MockVariantRepository)}
	m.resolver = NewMappingResolver(m.variantRepo, integration.DefaultMatcher(), zap.NewNop())
	return m
}

func newTestProduct(t *testing.T, name string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(name, decimal.NewFromInt(100))
	require.NoError(t, err)
	return product
}

func newTestVariant(t *testing.T, product *catalog.Product, label, sku string) catalog.ProductVariant {
	t.Helper()
	variant, err := catalog.NewProductVariant(product.ID, label, sku, 5)
	require.NoError(t, err)
	return *variant
}

func TestMappingResolver_SKUMatchBeatsNameSimilarity(t *testing.T) {
	m := newResolverMocks(t)
	product := newTestProduct(t, "Widget")
	blue := newTestVariant(t, product, "Blue", "SKU-A")
	blueLarge := newTestVariant(t, product, "Blue Large", "SKU-B")

	remote := &integration.MarketplaceProduct{
		ProductID: "mp-1",
		Options: []integration.MarketplaceOption{
			// the seller code points at SKU-B even though the name part
			// matches "Blue" first
			{OptionID: "opt-1", ChannelProductID: "cp-1001", SellerCode: "SKU-B", Name1: "Blue"},
		},
	}

	m.variantRepo.On("FindByProduct", mock.Anything, product.ID).
		Return([]catalog.ProductVariant{blue, blueLarge}, nil)
	m.variantRepo.On("Save", mock.Anything, mock.MatchedBy(func(v *catalog.ProductVariant) bool {
		return v.ID == blueLarge.ID && v.MarketplaceOptionID != nil && *v.MarketplaceOptionID == "opt-1"
	})).Return(nil).Once()

	result, err := m.resolver.ResolveProduct(context.Background(), product, remote)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Mapped)
	assert.Empty(t, result.Unmapped)
	m.variantRepo.AssertExpectations(t)
}

func TestMappingResolver_NameFallbackWhenSellerCodeAbsent(t *testing.T) {
	m := newResolverMocks(t)
	product := newTestProduct(t, "Widget")
	red := newTestVariant(t, product, "Deep Red", "")

	remote := &integration.MarketplaceProduct{
		ProductID: "mp-1",
		Options: []integration.MarketplaceOption{
			{OptionID: "opt-9", ChannelProductID: "cp-1001", Name1: "red"},
		},
	}

	m.variantRepo.On("FindByProduct", mock.Anything, product.ID).
		Return([]catalog.ProductVariant{red}, nil)
	m.variantRepo.On("Save", mock.Anything, mock.MatchedBy(func(v *catalog.ProductVariant) bool {
		return v.ID == red.ID && v.IsExternallyAddressable()
	})).Return(nil).Once()

	result, err := m.resolver.ResolveProduct(context.Background(), product, remote)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Mapped)
}

func TestMappingResolver_AlreadyLinkedOptionNotRebound(t *testing.T) {
	m := newResolverMocks(t)
	product := newTestProduct(t, "Widget")
	blue := newTestVariant(t, product, "Blue", "SKU-A")
	require.NoError(t, blue.LinkMarketplaceOption("opt-1", "cp-1001"))

	remote := &integration.MarketplaceProduct{
		ProductID: "mp-1",
		Options: []integration.MarketplaceOption{
			{OptionID: "opt-1", ChannelProductID: "cp-1001", SellerCode: "SKU-A", Name1: "Blue"},
		},
	}

	m.variantRepo.On("FindByProduct", mock.Anything, product.ID).
		Return([]catalog.ProductVariant{blue}, nil)

	result, err := m.resolver.ResolveProduct(context.Background(), product, remote)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Mapped)
	assert.Empty(t, result.Unmapped)
	m.variantRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMappingResolver_VariantConsumedOncePerPass(t *testing.T) {
	m := newResolverMocks(t)
	product := newTestProduct(t, "Widget")
	blue := newTestVariant(t, product, "Blue", "")

	remote := &integration.MarketplaceProduct{
		ProductID: "mp-1",
		Options: []integration.MarketplaceOption{
			{OptionID: "opt-1", ChannelProductID: "cp-1001", Name1: "Blue"},
			{OptionID: "opt-2", ChannelProductID: "cp-1001", Name1: "Blue"},
		},
	}

	m.variantRepo.On("FindByProduct", mock.Anything, product.ID).
		Return([]catalog.ProductVariant{blue}, nil)
	m.variantRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := m.resolver.ResolveProduct(context.Background(), product, remote)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Mapped)
	require.Len(t, result.Unmapped, 1)
	assert.Equal(t, "opt-2", result.Unmapped[0].OptionID)
	m.variantRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestMappingResolver_UnmappedReasonsReported(t *testing.T) {
	m := newResolverMocks(t)
	product := newTestProduct(t, "Widget")
	blue := newTestVariant(t, product, "Blue", "SKU-A")

	remote := &integration.MarketplaceProduct{
		ProductID: "mp-1",
		Options: []integration.MarketplaceOption{
			{OptionID: "opt-1", ChannelProductID: "cp-1001", SellerCode: "SKU-X", Name1: "Chartreuse"},
			{OptionID: "opt-2", ChannelProductID: "cp-1001", Name1: "Mauve"},
		},
	}

	m.variantRepo.On("FindByProduct", mock.Anything, product.ID).
		Return([]catalog.ProductVariant{blue}, nil)

	result, err := m.resolver.ResolveProduct(context.Background(), product, remote)
	require.NoError(t, err)

	require.Len(t, result.Unmapped, 2)
	assert.Equal(t, integration.UnmappedReasonSKUMismatch, result.Unmapped[0].Reason)
	assert.Equal(t, integration.UnmappedReasonSKUAbsent, result.Unmapped[1].Reason)
}
