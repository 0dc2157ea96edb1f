package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/shopcore/backend/internal/application/catalog"
	inventoryapp "github.com/shopcore/backend/internal/application/inventory"
	"github.com/shopcore/backend/internal/interfaces/http/dto"
)

// ProductHandler handles catalog API endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
	ledger         *inventoryapp.StockLedger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService, ledger *inventoryapp.StockLedger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		ledger:         ledger,
	}
}

// List returns a page of products with their variants
// GET /catalog/products
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	page, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID returns one product with its variants
// GET /catalog/products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// SetProductStock applies a manual absolute stock correction to a product
// without variants
// PUT /catalog/products/:id/stock
func (h *ProductHandler) SetProductStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req catalogapp.SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.ledger.SetProductStock(c.Request.Context(), id, req.Stock)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToProductResponse(product, nil))
}

// SetVariantStock applies a manual absolute stock correction to a variant
// and recomputes the parent aggregate
// PUT /catalog/variants/:id/stock
func (h *ProductHandler) SetVariantStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid variant ID")
		return
	}

	var req catalogapp.SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, "Invalid request body: "+err.Error())
		return
	}

	variant, err := h.ledger.SetVariantStock(c.Request.Context(), id, req.Stock)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToVariantResponse(variant))
}
