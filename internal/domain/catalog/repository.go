package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopcore/backend/internal/domain/shared"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	// FindActiveUnlinked returns active, non-deleted products that have no
	// marketplace id yet. Used by the mapping builder.
	FindActiveUnlinked(ctx context.Context) ([]Product, error)
	// FindMarketplaceLinked returns non-deleted products carrying a
	// marketplace id. Used by the product-level sync batch.
	FindMarketplaceLinked(ctx context.Context) ([]Product, error)
	// CountUnlinked returns how many non-deleted products lack a marketplace
	// id. The sync batch reports these as skipped.
	CountUnlinked(ctx context.Context) (int64, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// DecrementStock atomically decrements product-level stock with a floor
	// check at the storage layer. Returns shared.ErrInsufficientStock when
	// the decrement would drive stock negative.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) error
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int64) error
	// UpdateStock sets the aggregate stock column to an absolute value
	// without touching the rest of the row (ledger recompute step).
	UpdateStock(ctx context.Context, id uuid.UUID, stock int64) error
}

// VariantRepository defines persistence operations for product variants
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)
	// FindByProduct returns all non-deleted variants of a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]ProductVariant, error)
	// FindMarketplaceLinked returns non-deleted variants with both mapping
	// fields set. Used by the variant-level sync batch.
	FindMarketplaceLinked(ctx context.Context) ([]ProductVariant, error)
	// CountUnmapped returns how many non-deleted variants are missing one or
	// both mapping fields. The sync batch reports these as skipped.
	CountUnmapped(ctx context.Context) (int64, error)
	Save(ctx context.Context, variant *ProductVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DecrementStock atomically decrements variant stock with a floor check
	// at the storage layer (UPDATE ... WHERE stock >= quantity).
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) error
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int64) error
	// SumStockByProduct returns the sum of non-deleted variant stocks for a
	// product, used by the aggregate recompute step.
	SumStockByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	// CountByProduct returns the number of non-deleted variants on a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
