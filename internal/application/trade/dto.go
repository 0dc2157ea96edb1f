package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcore/backend/internal/domain/trade"
)

// ==================== Order DTOs ====================

// OrderLineInput represents one requested line of a new order
type OrderLineInput struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int64      `json:"quantity" binding:"required,min=1"`
}

// PlaceOrderRequest represents a request to place an order
type PlaceOrderRequest struct {
	Items []OrderLineInput `json:"items" binding:"required,min=1"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// OrderItemResponse is one order line in a response
type OrderItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName  string          `json:"product_name"`
	VariantLabel string          `json:"variant_label,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int64           `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
}

// OrderResponse is the API representation of an order
type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	Status       string              `json:"status"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	CancelReason string              `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Items        []OrderItemResponse `json:"items"`
}

// ToOrderResponse converts a domain order to its API representation
func ToOrderResponse(order *trade.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		items = append(items, OrderItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			ProductName:  item.ProductName,
			VariantLabel: item.VariantLabel,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			Amount:       item.Amount(),
		})
	}

	return &OrderResponse{
		ID:           order.ID,
		Status:       order.Status.String(),
		TotalAmount:  order.TotalAmount,
		CancelReason: order.CancelReason,
		CancelledAt:  order.CancelledAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
		Items:        items,
	}
}
