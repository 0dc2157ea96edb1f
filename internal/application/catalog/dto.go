package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcore/backend/internal/domain/catalog"
)

// ProductListFilter carries list query parameters
type ProductListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// SetStockRequest is a manual absolute stock correction
type SetStockRequest struct {
	Stock int64 `json:"stock" binding:"min=0"`
}

// VariantResponse is the API representation of a product variant
type VariantResponse struct {
	ID                          uuid.UUID `json:"id"`
	ProductID                   uuid.UUID `json:"product_id"`
	Label                       string    `json:"label"`
	SKU                         string    `json:"sku,omitempty"`
	Stock                       int64     `json:"stock"`
	MarketplaceOptionID         *string   `json:"marketplace_option_id,omitempty"`
	MarketplaceChannelProductID *string   `json:"marketplace_channel_product_id,omitempty"`
	CreatedAt                   time.Time `json:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

// ProductResponse is the API representation of a product
type ProductResponse struct {
	ID                   uuid.UUID         `json:"id"`
	Name                 string            `json:"name"`
	Description          string            `json:"description,omitempty"`
	Price                decimal.Decimal   `json:"price"`
	Stock                int64             `json:"stock"`
	MarketplaceProductID *string           `json:"marketplace_product_id,omitempty"`
	ImageURL             string            `json:"image_url,omitempty"`
	Status               string            `json:"status"`
	Variants             []VariantResponse `json:"variants,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// ToVariantResponse converts a variant entity to its API representation
func ToVariantResponse(v *catalog.ProductVariant) VariantResponse {
	return VariantResponse{
		ID:                          v.ID,
		ProductID:                   v.ProductID,
		Label:                       v.Label,
		SKU:                         v.SKU,
		Stock:                       v.Stock,
		MarketplaceOptionID:         v.MarketplaceOptionID,
		MarketplaceChannelProductID: v.MarketplaceChannelProductID,
		CreatedAt:                   v.CreatedAt,
		UpdatedAt:                   v.UpdatedAt,
	}
}

// ToProductResponse converts a product entity to its API representation
func ToProductResponse(p *catalog.Product, variants []catalog.ProductVariant) ProductResponse {
	resp := ProductResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		Price:                p.Price,
		Stock:                p.Stock,
		MarketplaceProductID: p.MarketplaceProductID,
		ImageURL:             p.ImageURL,
		Status:               string(p.Status),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	for i := range variants {
		resp.Variants = append(resp.Variants, ToVariantResponse(&variants[i]))
	}
	return resp
}
