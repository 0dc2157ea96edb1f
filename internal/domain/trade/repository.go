package trade

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopcore/backend/internal/domain/shared"
)

// OrderRepository defines persistence operations for orders
type OrderRepository interface {
	// FindByID loads an order together with its line items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Save(ctx context.Context, order *Order) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
