package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/shared"
)

// GormVariantRepository implements catalog.VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID finds a variant by its ID
func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	var variant catalog.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// FindByProduct finds all non-deleted variants of a product
func (r *GormVariantRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.ProductVariant, error) {
	var variants []catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("label ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// FindMarketplaceLinked finds variants with both mapping fields set
func (r *GormVariantRepository) FindMarketplaceLinked(ctx context.Context) ([]catalog.ProductVariant, error) {
	var variants []catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("marketplace_option_id IS NOT NULL AND marketplace_option_id != ''").
		Where("marketplace_channel_product_id IS NOT NULL AND marketplace_channel_product_id != ''").
		Order("product_id ASC, label ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// CountUnmapped counts non-deleted variants missing one or both mapping fields
func (r *GormVariantRepository) CountUnmapped(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.ProductVariant{}).
		Where("marketplace_option_id IS NULL OR marketplace_option_id = ''" +
			" OR marketplace_channel_product_id IS NULL OR marketplace_channel_product_id = ''").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a variant
func (r *GormVariantRepository) Save(ctx context.Context, variant *catalog.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

// Delete soft-deletes a variant
func (r *GormVariantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.ProductVariant{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DecrementStock atomically decrements variant stock with a floor check
func (r *GormVariantRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) error {
	result := r.db.WithContext(ctx).Model(&catalog.ProductVariant{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&catalog.ProductVariant{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrInsufficientStock
	}
	return nil
}

// IncrementStock atomically increments variant stock
func (r *GormVariantRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int64) error {
	result := r.db.WithContext(ctx).Model(&catalog.ProductVariant{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumStockByProduct returns the sum of non-deleted variant stocks for a product
func (r *GormVariantRepository) SumStockByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).Model(&catalog.ProductVariant{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(stock), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// CountByProduct returns the number of non-deleted variants on a product
func (r *GormVariantRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.ProductVariant{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormVariantRepository implements VariantRepository
var _ catalog.VariantRepository = (*GormVariantRepository)(nil)
