package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcore/backend/internal/domain/shared"
)

// ProductVariant is a purchasable option of a product carrying its own
// authoritative stock count. A variant becomes externally addressable for
// marketplace stock pushes once both the marketplace option id and the
// marketplace channel-product id are set; until then it is sync-invisible.
type ProductVariant struct {
	shared.BaseEntity
	ProductID                   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Label                       string         `gorm:"type:varchar(200);not null"`
	SKU                         string         `gorm:"type:varchar(64);index"`
	Stock                       int64          `gorm:"not null;default:0"`
	MarketplaceOptionID         *string        `gorm:"type:varchar(64);index"`
	MarketplaceChannelProductID *string        `gorm:"type:varchar(64)"`
	DeletedAt                   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NewProductVariant creates a new variant for a product
func NewProductVariant(productID uuid.UUID, label, sku string, stock int64) (*ProductVariant, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Variant requires an owning product")
	}
	if label == "" {
		return nil, shared.NewDomainError("INVALID_LABEL", "Variant label cannot be empty")
	}
	if stock < 0 {
		return nil, shared.ErrInsufficientStock
	}

	return &ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Label:      label,
		SKU:        sku,
		Stock:      stock,
	}, nil
}

// IsExternallyAddressable reports whether the variant can be targeted by a
// marketplace stock push. Both mapping fields must be set.
func (v *ProductVariant) IsExternallyAddressable() bool {
	return v.MarketplaceOptionID != nil && *v.MarketplaceOptionID != "" &&
		v.MarketplaceChannelProductID != nil && *v.MarketplaceChannelProductID != ""
}

// LinkMarketplaceOption persists the marketplace option identity onto the
// variant. Mapping fields are set once and are otherwise stable.
func (v *ProductVariant) LinkMarketplaceOption(optionID, channelProductID string) error {
	if optionID == "" || channelProductID == "" {
		return shared.NewDomainError("INVALID_MAPPING", "Option ID and channel-product ID are both required")
	}
	v.MarketplaceOptionID = &optionID
	v.MarketplaceChannelProductID = &channelProductID
	v.UpdatedAt = time.Now()

	return nil
}

// SetStock sets the variant stock to an absolute value (manual correction)
func (v *ProductVariant) SetStock(stock int64) error {
	if stock < 0 {
		return shared.ErrInsufficientStock
	}
	v.Stock = stock
	v.UpdatedAt = time.Now()

	return nil
}

// HasSKU returns true if the variant carries a stored SKU
func (v *ProductVariant) HasSKU() bool {
	return v.SKU != ""
}
