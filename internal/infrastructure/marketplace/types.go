package marketplace

import (
	"github.com/shopcore/backend/internal/domain/integration"
)

// tokenResponse is the payload of the credential exchange endpoint
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// errorResponse is the error envelope returned by the marketplace
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// optionPayload is a single purchasable option of a channel product
type optionPayload struct {
	ID                string `json:"id"`
	SellerManagerCode string `json:"sellerManagerCode"`
	OptionName1       string `json:"optionName1"`
	OptionName2       string `json:"optionName2"`
	StockQuantity     int64  `json:"stockQuantity"`
}

// imagePayload is an image reference on a product
type imagePayload struct {
	URL string `json:"url"`
}

// productPayload is the marketplace's product representation, returned by
// both the origin-product and channel-product endpoints
type productPayload struct {
	OriginProductNo  string          `json:"originProductNo"`
	ChannelProductNo string          `json:"channelProductNo"`
	Name             string          `json:"name"`
	DetailContent    string          `json:"detailContent"`
	StockQuantity    int64           `json:"stockQuantity"`
	SaleStatus       string          `json:"saleStatus"`
	Displayed        bool            `json:"displayed"`
	Images           []imagePayload  `json:"images"`
	Options          []optionPayload `json:"options"`
}

// productResponse wraps a single product
type productResponse struct {
	Product *productPayload `json:"product"`
}

// searchResponse is a page of the catalog search
type searchResponse struct {
	Contents      []productPayload `json:"contents"`
	Page          int              `json:"page"`
	TotalElements int64            `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
}

// stockUpdateRequest sets an absolute stock quantity
type stockUpdateRequest struct {
	StockQuantity int64 `json:"stockQuantity"`
}

// toDomainProduct converts a wire product to the domain representation
func toDomainProduct(p *productPayload) *integration.MarketplaceProduct {
	product := &integration.MarketplaceProduct{
		ProductID:        p.OriginProductNo,
		ChannelProductID: p.ChannelProductNo,
		OriginProductID:  p.OriginProductNo,
		Name:             p.Name,
		Description:      p.DetailContent,
		StockQuantity:    p.StockQuantity,
		SaleStatus:       p.SaleStatus,
		Displayed:        p.Displayed,
	}

	for _, img := range p.Images {
		if img.URL != "" {
			product.ImageURLs = append(product.ImageURLs, img.URL)
		}
	}

	for _, opt := range p.Options {
		product.Options = append(product.Options, integration.MarketplaceOption{
			OptionID:         opt.ID,
			ChannelProductID: p.ChannelProductNo,
			SellerCode:       opt.SellerManagerCode,
			Name1:            opt.OptionName1,
			Name2:            opt.OptionName2,
			Stock:            opt.StockQuantity,
		})
	}

	return product
}
