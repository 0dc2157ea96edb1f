package integration

import (
	"context"
	"errors"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	ErrMarketplaceNotConfigured   = errors.New("integration: marketplace not configured")
	ErrMarketplaceUnavailable     = errors.New("integration: marketplace temporarily unavailable")
	ErrMarketplaceRequestFailed   = errors.New("integration: marketplace request failed")
	ErrMarketplaceInvalidResponse = errors.New("integration: invalid marketplace response")
	ErrMarketplaceAuthFailed      = errors.New("integration: marketplace authentication failed")
	ErrMarketplaceRateLimited     = errors.New("integration: marketplace rate limited")
	ErrProductNotFound            = errors.New("integration: marketplace product not found")
	ErrOptionNotFound             = errors.New("integration: marketplace option not found")
)

// ---------------------------------------------------------------------------
// Remote read models
// ---------------------------------------------------------------------------

// MarketplaceOption is the externally reported purchasable option of a
// channel product. It is read-only from this system's point of view; the
// only durable key shared with an internal variant is established when the
// resolver first matches the two.
type MarketplaceOption struct {
	OptionID         string
	ChannelProductID string
	// SellerCode is the marketplace's SKU-equivalent code
	SellerCode string
	// Name1/Name2 are the free-text option name parts (e.g. color / size)
	Name1 string
	Name2 string
	Stock int64
}

// DisplayName joins the non-empty name parts for logging
func (o MarketplaceOption) DisplayName() string {
	if o.Name2 == "" {
		return o.Name1
	}
	return o.Name1 + "/" + o.Name2
}

// MarketplaceProduct is the remote catalog entry for one listing
type MarketplaceProduct struct {
	ProductID        string
	ChannelProductID string
	Name             string
	Description      string
	StockQuantity    int64
	SaleStatus       string
	Displayed        bool
	ImageURLs        []string
	Options          []MarketplaceOption
	// OriginProductID is the marketplace's catalog-wide product id, distinct
	// from the per-sales-channel listing id
	OriginProductID string
}

// IsSellable reports whether the listing is on sale, in stock and displayed.
// The mapping builder only considers sellable entries.
func (p MarketplaceProduct) IsSellable() bool {
	return p.SaleStatus == SaleStatusOnSale && p.StockQuantity > 0 && p.Displayed
}

// Remote sale status values
const (
	SaleStatusOnSale  = "SALE"
	SaleStatusSoldOut = "SUSPENSION"
)

// ---------------------------------------------------------------------------
// MarketplaceGateway port
// ---------------------------------------------------------------------------

// SearchPage is one page of a paged marketplace catalog search
type SearchPage struct {
	Products   []MarketplaceProduct
	Page       int
	TotalCount int64
	HasMore    bool
}

// SearchRequest describes a paged catalog search
type SearchRequest struct {
	Page     int
	PageSize int
	// OnSaleOnly filters to on-sale entries server side where supported
	OnSaleOnly bool
}

// MarketplaceGateway is the port through which local stock truth is pushed
// to and remote catalog state is read from the marketplace channel.
// Implementations handle credentials, retries and rate limiting internally;
// callers see only the final outcome per call.
type MarketplaceGateway interface {
	// GetProduct retrieves a listing by its marketplace product id
	GetProduct(ctx context.Context, productID string) (*MarketplaceProduct, error)
	// GetChannelProduct retrieves a listing by its per-channel id
	GetChannelProduct(ctx context.Context, channelProductID string) (*MarketplaceProduct, error)
	// SearchProducts returns one page of the remote catalog
	SearchProducts(ctx context.Context, req SearchRequest) (*SearchPage, error)
	// UpdateProductStock pushes an absolute product-level stock value
	UpdateProductStock(ctx context.Context, productID string, stock int64) error
	// UpdateOptionStock pushes an absolute option-level stock value
	UpdateOptionStock(ctx context.Context, channelProductID, optionID string, stock int64) error
}
