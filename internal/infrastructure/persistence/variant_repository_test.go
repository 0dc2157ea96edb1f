package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/shared"
)

// setupCatalogTestDB creates an in-memory SQLite database with catalog tables
func setupCatalogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&catalog.Product{}, &catalog.ProductVariant{})
	require.NoError(t, err)

	return db
}

func newTestVariant(t *testing.T, productID uuid.UUID, label, sku string, stock int64) *catalog.ProductVariant {
	variant, err := catalog.NewProductVariant(productID, label, sku, stock)
	require.NoError(t, err)
	return variant
}

func TestGormVariantRepository_SaveAndFind(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormVariantRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	variant := newTestVariant(t, productID, "Blue / L", "TS-BLUE-L", 7)

	require.NoError(t, repo.Save(ctx, variant))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, "Blue / L", found.Label)
		assert.Equal(t, int64(7), found.Stock)
	})

	t.Run("returns ErrNotFound for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

}

func TestGormVariantRepository_FindByProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormVariantRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	a := newTestVariant(t, productID, "Blue / L", "TS-BLUE-L", 5)
	b := newTestVariant(t, productID, "Red / M", "TS-RED-M", 3)
	other := newTestVariant(t, uuid.New(), "Lone", "LONE-1", 1)

	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))
	require.NoError(t, repo.Save(ctx, other))

	variants, err := repo.FindByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, variants, 2)

	t.Run("excludes soft-deleted variants", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, b.ID))

		variants, err := repo.FindByProduct(ctx, productID)
		require.NoError(t, err)
		assert.Len(t, variants, 1)
		assert.Equal(t, a.ID, variants[0].ID)
	})
}

func TestGormVariantRepository_DecrementStock(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormVariantRepository(db)
	ctx := context.Background()

	variant := newTestVariant(t, uuid.New(), "Blue / L", "TS-BLUE-L", 5)
	require.NoError(t, repo.Save(ctx, variant))

	t.Run("decrements within the floor", func(t *testing.T) {
		err := repo.DecrementStock(ctx, variant.ID, 3)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), found.Stock)
	})

	t.Run("rejects a decrement past zero", func(t *testing.T) {
		err := repo.DecrementStock(ctx, variant.ID, 3)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		// Stock is untouched after a rejected decrement
		found, err := repo.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), found.Stock)
	})

	t.Run("allows a decrement to exactly zero", func(t *testing.T) {
		err := repo.DecrementStock(ctx, variant.ID, 2)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), found.Stock)
	})

	t.Run("returns ErrNotFound for unknown variant", func(t *testing.T) {
		err := repo.DecrementStock(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormVariantRepository_IncrementStock(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormVariantRepository(db)
	ctx := context.Background()

	variant := newTestVariant(t, uuid.New(), "Blue / L", "TS-BLUE-L", 2)
	require.NoError(t, repo.Save(ctx, variant))

	require.NoError(t, repo.IncrementStock(ctx, variant.ID, 4))

	found, err := repo.FindByID(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), found.Stock)
}

func TestGormVariantRepository_SumStockByProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormVariantRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	a := newTestVariant(t, productID, "Blue / L", "TS-BLUE-L", 5)
	b := newTestVariant(t, productID, "Red / M", "TS-RED-M", 3)
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	sum, err := repo.SumStockByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), sum)

	t.Run("returns zero for product without variants", func(t *testing.T) {
		sum, err := repo.SumStockByProduct(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(0), sum)
	})

	t.Run("excludes soft-deleted variants from the sum", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, b.ID))

		sum, err := repo.SumStockByProduct(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), sum)
	})
}

func TestGormVariantRepository_FindMarketplaceLinked(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormVariantRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	linked := newTestVariant(t, productID, "Blue / L", "TS-BLUE-L", 5)
	require.NoError(t, linked.LinkMarketplaceOption("opt-1", "chan-1"))
	unlinked := newTestVariant(t, productID, "Red / M", "TS-RED-M", 3)

	require.NoError(t, repo.Save(ctx, linked))
	require.NoError(t, repo.Save(ctx, unlinked))

	variants, err := repo.FindMarketplaceLinked(ctx)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, linked.ID, variants[0].ID)
}
