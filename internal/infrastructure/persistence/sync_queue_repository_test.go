package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	syncdomain "github.com/shopcore/backend/internal/domain/sync"
)

func setupQueueTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&syncdomain.QueueEntry{})
	require.NoError(t, err)

	return db
}

func TestGormSyncQueueRepository_SaveAndFind(t *testing.T) {
	db := setupQueueTestDB(t)
	repo := NewGormSyncQueueRepository(db)
	ctx := context.Background()

	entry, err := syncdomain.NewProductEntry(uuid.New(), "mp-100", 5)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, entry))

	found, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "mp-100", found.MarketplaceProductID)
	assert.Equal(t, int64(5), found.TargetStock)
	assert.Equal(t, syncdomain.EntryStatusPending, found.Status)

	t.Run("save with no entries is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.Save(ctx))
	})
}

func TestGormSyncQueueRepository_FindPending(t *testing.T) {
	db := setupQueueTestDB(t)
	repo := NewGormSyncQueueRepository(db)
	ctx := context.Background()

	first, err := syncdomain.NewProductEntry(uuid.New(), "mp-1", 1)
	require.NoError(t, err)
	second, err := syncdomain.NewProductEntry(uuid.New(), "mp-2", 2)
	require.NoError(t, err)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	done, err := syncdomain.NewProductEntry(uuid.New(), "mp-3", 3)
	require.NoError(t, err)
	done.MarkDone()

	require.NoError(t, repo.Save(ctx, first, second, done))

	t.Run("returns pending entries oldest first", func(t *testing.T) {
		entries, err := repo.FindPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, first.ID, entries[0].ID)
		assert.Equal(t, second.ID, entries[1].ID)
	})

	t.Run("honors the limit", func(t *testing.T) {
		entries, err := repo.FindPending(ctx, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, first.ID, entries[0].ID)
	})
}

func TestGormSyncQueueRepository_PendingByUnit(t *testing.T) {
	db := setupQueueTestDB(t)
	repo := NewGormSyncQueueRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	variantID := uuid.New()

	productEntry, err := syncdomain.NewProductEntry(productID, "mp-1", 4)
	require.NoError(t, err)
	variantEntry, err := syncdomain.NewVariantEntry(productID, variantID, "chan-1", "opt-1", 2)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, productEntry, variantEntry))

	entries, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	t.Run("product-unit entry carries no variant id", func(t *testing.T) {
		assert.Equal(t, productEntry.ID, entries[0].ID)
		assert.False(t, entries[0].IsVariantUnit())
	})

	t.Run("variant-unit entry matches the variant id", func(t *testing.T) {
		assert.Equal(t, variantEntry.ID, entries[1].ID)
		require.NotNil(t, entries[1].VariantID)
		assert.Equal(t, variantID, *entries[1].VariantID)
		assert.True(t, entries[1].IsVariantUnit())
	})
}

func TestGormSyncQueueRepository_CountByStatus(t *testing.T) {
	db := setupQueueTestDB(t)
	repo := NewGormSyncQueueRepository(db)
	ctx := context.Background()

	pending, err := syncdomain.NewProductEntry(uuid.New(), "mp-1", 1)
	require.NoError(t, err)
	failed, err := syncdomain.NewProductEntry(uuid.New(), "mp-2", 2)
	require.NoError(t, err)
	failed.MarkFailed("option not found")

	require.NoError(t, repo.Save(ctx, pending, failed))

	count, err := repo.CountByStatus(ctx, syncdomain.EntryStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountByStatus(ctx, syncdomain.EntryStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	t.Run("failure detail is persisted", func(t *testing.T) {
		found, err := repo.FindByID(ctx, failed.ID)
		require.NoError(t, err)
		assert.Equal(t, "option not found", found.LastError)
		assert.NotNil(t, found.ProcessedAt)
	})
}
