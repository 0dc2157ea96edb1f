package trade

import (
	"github.com/google/uuid"

	"github.com/shopcore/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced    = "OrderPlaced"
	EventTypeOrderCancelled = "OrderCancelled"
)

// OrderPlacedEvent is published when a new order is placed
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(order *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
	}
}

// OrderCancelledEvent is published when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason,omitempty"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order, reason string) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		Reason:          reason,
	}
}
