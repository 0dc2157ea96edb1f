// Package trade implements order placement and cancellation on top of the
// stock ledger, so order rows, stock deductions and sync queue entries
// commit in a single transaction.
package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	inventoryapp "github.com/shopcore/backend/internal/application/inventory"
	"github.com/shopcore/backend/internal/domain/shared"
	"github.com/shopcore/backend/internal/domain/trade"
	"github.com/shopcore/backend/internal/infrastructure/telemetry"
)

// OrderService handles order lifecycle operations
type OrderService struct {
	scope     inventoryapp.TransactionScope
	ledger    *inventoryapp.StockLedger
	orderRepo trade.OrderRepository
	metrics   *telemetry.SyncMetrics
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	scope inventoryapp.TransactionScope,
	ledger *inventoryapp.StockLedger,
	orderRepo trade.OrderRepository,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		scope:     scope,
		ledger:    ledger,
		orderRepo: orderRepo,
		logger:    logger.Named("order_service"),
	}
}

// SetMetrics sets the optional metrics bundle
func (s *OrderService) SetMetrics(metrics *telemetry.SyncMetrics) {
	s.metrics = metrics
}

// PlaceOrder places an order, deducting stock for every line all-or-nothing.
// Prices and names are snapshotted from the catalog at order time. Any line
// failing its floor check aborts the whole order; nothing is persisted and no
// sync entries are produced.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one line")
	}

	var order *trade.Order

	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		order = trade.NewOrder()

		for _, line := range req.Items {
			product, err := repos.ProductRepo().FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive() {
				return shared.NewDomainError("PRODUCT_INACTIVE", "Product is not available for ordering")
			}

			variantLabel := ""
			if line.VariantID != nil {
				variant, err := repos.VariantRepo().FindByID(ctx, *line.VariantID)
				if err != nil {
					return err
				}
				if variant.ProductID != line.ProductID {
					return shared.NewDomainError("VARIANT_MISMATCH", "Variant does not belong to the given product")
				}
				variantLabel = variant.Label
			}

			if _, err := order.AddItem(line.ProductID, line.VariantID, product.Name, variantLabel, product.Price, line.Quantity); err != nil {
				return err
			}
		}

		if err := s.ledger.DeductItems(ctx, repos, order.Items); err != nil {
			return err
		}

		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.metrics.RecordStockRejected(ctx)
			s.logger.Info("Order rejected for insufficient stock", zap.Error(err))
		}
		return nil, err
	}

	s.metrics.RecordOrderPlaced(ctx)
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", order.ItemCount()),
		zap.String("total_amount", order.TotalAmount.String()),
	)
	return ToOrderResponse(order), nil
}

// CancelOrder cancels an order, then restores its deducted stock in a second
// transaction. Orders already in a terminal state reject the transition, so
// restoration cannot run twice. Restoration is best effort: a failure leaves
// recoverable stock drift and a logged warning rather than blocking the
// customer-facing cancellation. No compensating sync entries are enqueued;
// the next sync batch pushes current catalog truth.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	var order *trade.Order

	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		if err := order.Cancel(req.Reason); err != nil {
			return err
		}

		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	restoreErr := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		return s.ledger.RestoreItems(ctx, repos, order.Items)
	})
	if restoreErr != nil {
		s.logger.Warn("Stock restoration failed after cancellation",
			zap.String("order_id", order.ID.String()),
			zap.Error(restoreErr),
		)
	}

	s.metrics.RecordOrderCancelled(ctx)
	s.logger.Info("Order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("reason", req.Reason),
	)
	return ToOrderResponse(order), nil
}

// GetOrder loads one order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(order), nil
}

// ListOrders returns a paginated order list, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Status

	orders, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *ToOrderResponse(&orders[i]))
	}

	totalPages := int(total) / f.PageSize
	if int(total)%f.PageSize > 0 {
		totalPages++
	}

	return &shared.Paginated[OrderResponse]{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages,
	}, nil
}
