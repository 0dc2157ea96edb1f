package handler

import (
	"github.com/gin-gonic/gin"

	tradeapp "github.com/shopcore/backend/internal/application/trade"
	"github.com/shopcore/backend/internal/interfaces/http/dto"
)

// OrderHandler handles order API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Place creates an order and deducts stock for its lines
// POST /trade/orders
func (h *OrderHandler) Place(c *gin.Context) {
	var req tradeapp.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Cancel cancels an order and restores its stock
// POST /trade/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req tradeapp.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetByID returns one order with its items
// GET /trade/orders/:id
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List returns a page of orders
// GET /trade/orders
func (h *OrderHandler) List(c *gin.Context) {
	var filter tradeapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	page, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
