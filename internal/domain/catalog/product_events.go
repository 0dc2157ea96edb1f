package catalog

import (
	"github.com/google/uuid"

	"github.com/shopcore/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated           = "ProductCreated"
	EventTypeProductMarketplaceLinked = "ProductMarketplaceLinked"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
	}
}

// ProductMarketplaceLinkedEvent is published when a product gains its
// marketplace id
type ProductMarketplaceLinkedEvent struct {
	shared.BaseDomainEvent
	ProductID            uuid.UUID `json:"product_id"`
	MarketplaceProductID string    `json:"marketplace_product_id"`
}

// NewProductMarketplaceLinkedEvent creates a new ProductMarketplaceLinkedEvent
func NewProductMarketplaceLinkedEvent(product *Product, marketplaceProductID string) *ProductMarketplaceLinkedEvent {
	return &ProductMarketplaceLinkedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeProductMarketplaceLinked, AggregateTypeProduct, product.ID),
		ProductID:            product.ID,
		MarketplaceProductID: marketplaceProductID,
	}
}
