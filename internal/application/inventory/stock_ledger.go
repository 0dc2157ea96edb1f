// Package inventory implements stock bookkeeping for orders and manual
// corrections, keeping product aggregates and the marketplace sync queue
// consistent with every committed stock mutation.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/shared"
	syncdomain "github.com/shopcore/backend/internal/domain/sync"
	"github.com/shopcore/backend/internal/domain/trade"
)

// StockLedger applies stock mutations with three guarantees: decrements are
// floor-checked at the storage layer, product aggregate stock is recomputed
// after every variant mutation, and each mutation of a marketplace-linked
// unit leaves a pending queue entry carrying the committed value.
type StockLedger struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewStockLedger creates a new StockLedger
func NewStockLedger(scope TransactionScope, logger *zap.Logger) *StockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLedger{
		scope:  scope,
		logger: logger.Named("stock_ledger"),
	}
}

// DeductItems deducts stock for every order line, all-or-nothing. The caller
// runs it inside its transaction scope so the order row and the deductions
// commit together. A failed line aborts with an error naming the line, and
// the rolled-back transaction leaves no partial deductions behind.
//
// Variant lines decrement the variant and trigger an aggregate recompute on
// the owning product; product-level lines decrement the product directly.
// Marketplace-linked units touched by the deduction are enqueued with their
// committed post-deduction stock.
func (l *StockLedger) DeductItems(ctx context.Context, repos TransactionalRepositories, items []trade.OrderItem) error {
	if len(items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one line")
	}

	// product id -> needs aggregate recompute (had a variant decrement)
	variantProducts := make(map[uuid.UUID]struct{})
	// variant id -> owning product id
	touchedVariants := make(map[uuid.UUID]uuid.UUID)
	// products decremented directly (no variant on the line)
	touchedProducts := make(map[uuid.UUID]struct{})

	for i := range items {
		item := &items[i]
		if item.VariantID != nil {
			if err := repos.VariantRepo().DecrementStock(ctx, *item.VariantID, item.Quantity); err != nil {
				return lineError(i, item, err)
			}
			touchedVariants[*item.VariantID] = item.ProductID
			variantProducts[item.ProductID] = struct{}{}
		} else {
			if err := repos.ProductRepo().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return lineError(i, item, err)
			}
			touchedProducts[item.ProductID] = struct{}{}
		}
	}

	if err := l.recomputeAggregates(ctx, repos, variantProducts); err != nil {
		return err
	}

	entries, err := l.buildQueueEntries(ctx, repos, touchedVariants, touchedProducts)
	if err != nil {
		return err
	}
	return repos.QueueRepo().Save(ctx, entries...)
}

// RestoreItems returns deducted stock after a cancellation. Lines whose unit
// was deleted since purchase are skipped with a warning instead of blocking
// the cancellation. Restoration does not enqueue compensating pushes: the
// periodic sync batch reads current catalog truth and reconciles the
// marketplace on its next run.
func (l *StockLedger) RestoreItems(ctx context.Context, repos TransactionalRepositories, items []trade.OrderItem) error {
	variantProducts := make(map[uuid.UUID]struct{})

	for i := range items {
		item := &items[i]
		if item.VariantID != nil {
			err := repos.VariantRepo().IncrementStock(ctx, *item.VariantID, item.Quantity)
			if errors.Is(err, shared.ErrNotFound) {
				l.logger.Warn("Skipping stock restoration for deleted variant",
					zap.String("variant_id", item.VariantID.String()),
					zap.Int64("quantity", item.Quantity),
				)
				continue
			}
			if err != nil {
				return lineError(i, item, err)
			}
			variantProducts[item.ProductID] = struct{}{}
		} else {
			err := repos.ProductRepo().IncrementStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, shared.ErrNotFound) {
				l.logger.Warn("Skipping stock restoration for deleted product",
					zap.String("product_id", item.ProductID.String()),
					zap.Int64("quantity", item.Quantity),
				)
				continue
			}
			if err != nil {
				return lineError(i, item, err)
			}
		}
	}

	return l.recomputeAggregates(ctx, repos, variantProducts)
}

// SetVariantStock sets a variant's stock to an absolute value (manual
// correction), recomputes the owning product's aggregate and enqueues a push
// when the variant is marketplace-mapped.
func (l *StockLedger) SetVariantStock(ctx context.Context, variantID uuid.UUID, stock int64) (*catalog.ProductVariant, error) {
	var updated *catalog.ProductVariant

	err := l.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		variant, err := repos.VariantRepo().FindByID(ctx, variantID)
		if err != nil {
			return err
		}
		if err := variant.SetStock(stock); err != nil {
			return err
		}
		if err := repos.VariantRepo().Save(ctx, variant); err != nil {
			return err
		}

		sum, err := repos.VariantRepo().SumStockByProduct(ctx, variant.ProductID)
		if err != nil {
			return err
		}
		if err := repos.ProductRepo().UpdateStock(ctx, variant.ProductID, sum); err != nil {
			return err
		}

		if variant.IsExternallyAddressable() {
			entry, err := syncdomain.NewVariantEntry(
				variant.ProductID, variant.ID,
				*variant.MarketplaceChannelProductID, *variant.MarketplaceOptionID,
				variant.Stock,
			)
			if err != nil {
				return err
			}
			if err := repos.QueueRepo().Save(ctx, entry); err != nil {
				return err
			}
		}

		updated = variant
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Variant stock corrected",
		zap.String("variant_id", variantID.String()),
		zap.Int64("stock", stock),
	)
	return updated, nil
}

// SetProductStock sets a product's stock to an absolute value. Products with
// variants reject the correction: their aggregate is derived, so corrections
// must target the variants.
func (l *StockLedger) SetProductStock(ctx context.Context, productID uuid.UUID, stock int64) (*catalog.Product, error) {
	var updated *catalog.Product

	err := l.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		variantCount, err := repos.VariantRepo().CountByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if variantCount > 0 {
			return shared.NewDomainError("DERIVED_STOCK",
				"Product stock is derived from variants; correct the variant stocks instead")
		}

		if err := product.SetStock(stock); err != nil {
			return err
		}
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return err
		}

		if product.IsMarketplaceLinked() {
			entry, err := syncdomain.NewProductEntry(product.ID, *product.MarketplaceProductID, product.Stock)
			if err != nil {
				return err
			}
			if err := repos.QueueRepo().Save(ctx, entry); err != nil {
				return err
			}
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Product stock corrected",
		zap.String("product_id", productID.String()),
		zap.Int64("stock", stock),
	)
	return updated, nil
}

// recomputeAggregates refreshes the aggregate stock of every product that had
// a variant mutation in this transaction.
func (l *StockLedger) recomputeAggregates(ctx context.Context, repos TransactionalRepositories, productIDs map[uuid.UUID]struct{}) error {
	for productID := range productIDs {
		sum, err := repos.VariantRepo().SumStockByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if err := repos.ProductRepo().UpdateStock(ctx, productID, sum); err != nil {
			return err
		}
	}
	return nil
}

// buildQueueEntries creates pending queue entries for every marketplace-mapped
// unit touched by a deduction, carrying the committed post-deduction stock.
// Unmapped units are silently skipped; they become sync-visible once mapped.
func (l *StockLedger) buildQueueEntries(
	ctx context.Context,
	repos TransactionalRepositories,
	touchedVariants map[uuid.UUID]uuid.UUID,
	touchedProducts map[uuid.UUID]struct{},
) ([]*syncdomain.QueueEntry, error) {
	entries := make([]*syncdomain.QueueEntry, 0, len(touchedVariants)+len(touchedProducts))

	for variantID, productID := range touchedVariants {
		variant, err := repos.VariantRepo().FindByID(ctx, variantID)
		if err != nil {
			return nil, err
		}
		if !variant.IsExternallyAddressable() {
			continue
		}
		entry, err := syncdomain.NewVariantEntry(
			productID, variantID,
			*variant.MarketplaceChannelProductID, *variant.MarketplaceOptionID,
			variant.Stock,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	for productID := range touchedProducts {
		product, err := repos.ProductRepo().FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !product.IsMarketplaceLinked() {
			continue
		}
		entry, err := syncdomain.NewProductEntry(productID, *product.MarketplaceProductID, product.Stock)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// lineError wraps a stock error with the failing line's identity so callers
// can report which line blocked the order.
func lineError(index int, item *trade.OrderItem, err error) error {
	name := item.ProductName
	if item.VariantLabel != "" {
		name = name + " / " + item.VariantLabel
	}
	return fmt.Errorf("line %d (%s): %w", index+1, name, err)
}
