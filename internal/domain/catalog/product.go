package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopcore/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is the aggregate root for catalog products. Stock on a product is
// authoritative only while the product has no variants; once variants exist
// it is the sum of the non-deleted variants' stocks and is recomputed after
// every variant mutation.
type Product struct {
	shared.BaseAggregateRoot
	Name                 string          `gorm:"type:varchar(200);not null"`
	Description          string          `gorm:"type:text"`
	Price                decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock                int64           `gorm:"not null;default:0"`
	MarketplaceProductID *string         `gorm:"type:varchar(64);index"`
	ImageURL             string          `gorm:"type:varchar(500)"`
	Status               ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
	DeletedAt            gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name string, price decimal.Decimal) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Price:             price,
		Status:            ProductStatusActive,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetStock sets the aggregate stock to an absolute value. For products with
// variants this is only called by the ledger recompute step.
func (p *Product) SetStock(stock int64) error {
	if stock < 0 {
		return shared.ErrInsufficientStock
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// LinkMarketplace attaches the marketplace product id, making product-level
// stock pushes addressable.
func (p *Product) LinkMarketplace(marketplaceProductID string) error {
	if marketplaceProductID == "" {
		return shared.NewDomainError("INVALID_MARKETPLACE_ID", "Marketplace product ID cannot be empty")
	}
	p.MarketplaceProductID = &marketplaceProductID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductMarketplaceLinkedEvent(p, marketplaceProductID))

	return nil
}

// IsMarketplaceLinked returns true if the product carries a marketplace id
func (p *Product) IsMarketplaceLinked() bool {
	return p.MarketplaceProductID != nil && *p.MarketplaceProductID != ""
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// Deactivate deactivates the product
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
