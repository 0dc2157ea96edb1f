package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcore/backend/internal/domain/shared"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusPaid, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is terminal. Stock restoration must
// never run against an order already in a terminal cancelled/refunded state.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// OrderItem is an immutable snapshot of one order line at order time.
// VariantID is nil for product-level line items.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID    *uuid.UUID      `gorm:"type:uuid;index"`
	ProductName  string          `gorm:"type:varchar(200);not null"`
	VariantLabel string          `gorm:"type:varchar(200)"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity     int64           `gorm:"not null"`
	CreatedAt    time.Time
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a new order line snapshot
func NewOrderItem(orderID, productID uuid.UUID, variantID *uuid.UUID, productName, variantLabel string, unitPrice decimal.Decimal, quantity int64) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &OrderItem{
		ID:           uuid.New(),
		OrderID:      orderID,
		ProductID:    productID,
		VariantID:    variantID,
		ProductName:  productName,
		VariantLabel: variantLabel,
		UnitPrice:    unitPrice,
		Quantity:     quantity,
		CreatedAt:    time.Now(),
	}, nil
}

// Amount returns the line total
func (i *OrderItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is the aggregate root for customer orders
type Order struct {
	shared.BaseAggregateRoot
	Status       OrderStatus     `gorm:"type:varchar(20);not null;default:'PLACED'"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CancelReason string          `gorm:"type:varchar(500)"`
	CancelledAt  *time.Time
	Items        []OrderItem `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order in placed status
func NewOrder() *Order {
	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            OrderStatusPlaced,
		TotalAmount:       decimal.Zero,
		Items:             make([]OrderItem, 0),
	}

	order.AddDomainEvent(NewOrderPlacedEvent(order))

	return order
}

// AddItem appends a line snapshot and recalculates the total
func (o *Order) AddItem(productID uuid.UUID, variantID *uuid.UUID, productName, variantLabel string, unitPrice decimal.Decimal, quantity int64) (*OrderItem, error) {
	if o.Status != OrderStatusPlaced {
		return nil, shared.ErrInvalidState
	}

	item, err := NewOrderItem(o.ID, productID, variantID, productName, variantLabel, unitPrice, quantity)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return item, nil
}

// Cancel transitions the order to cancelled. Terminal states reject the
// transition so restoration cannot run twice.
func (o *Order) Cancel(reason string) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("ALREADY_CANCELLED", "Order is already in a terminal state")
	}
	if o.Status == OrderStatusShipped || o.Status == OrderStatusCompleted {
		return shared.NewDomainError("CANNOT_CANCEL", "Shipped or completed orders cannot be cancelled")
	}

	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderCancelledEvent(o, reason))

	return nil
}

// MarkPaid transitions the order to paid
func (o *Order) MarkPaid() error {
	if o.Status != OrderStatusPlaced {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusPaid
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// IsCancelled returns true if the order is cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Amount())
	}
	o.TotalAmount = total
}
