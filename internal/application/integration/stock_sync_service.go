package integration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopcore/backend/internal/domain/catalog"
	"github.com/shopcore/backend/internal/domain/integration"
	syncdomain "github.com/shopcore/backend/internal/domain/sync"
	"github.com/shopcore/backend/internal/infrastructure/telemetry"
)

const defaultQueueBatchSize = 200

// StockSyncService pushes internal stock values to the marketplace. A batch
// is never transactional: each row succeeds or fails on its own and the
// report carries the tally.
type StockSyncService struct {
	productRepo    catalog.ProductRepository
	variantRepo    catalog.VariantRepository
	queueRepo      syncdomain.QueueRepository
	gateway        integration.MarketplaceGateway
	metrics        *telemetry.SyncMetrics
	logger         *zap.Logger
	queueBatchSize int
}

// NewStockSyncService creates a stock sync service
func NewStockSyncService(
	productRepo catalog.ProductRepository,
	variantRepo catalog.VariantRepository,
	queueRepo syncdomain.QueueRepository,
	gateway integration.MarketplaceGateway,
	logger *zap.Logger,
) *StockSyncService {
	return &StockSyncService{
		productRepo:    productRepo,
		variantRepo:    variantRepo,
		queueRepo:      queueRepo,
		gateway:        gateway,
		logger:         logger.Named("stock_sync"),
		queueBatchSize: defaultQueueBatchSize,
	}
}

// SetMetrics attaches sync metrics. Safe to leave unset; recording on a nil
// receiver is a no-op.
func (s *StockSyncService) SetMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// SetQueueBatchSize overrides the number of queue rows drained per pass
func (s *StockSyncService) SetQueueBatchSize(n int) {
	if n > 0 {
		s.queueBatchSize = n
	}
}

// SyncProducts pushes the aggregate stock of every marketplace-linked
// product. Products without a link are counted as skipped.
func (s *StockSyncService) SyncProducts(ctx context.Context) (*SyncReport, error) {
	startedAt := time.Now()
	report := newSyncReport()

	linked, err := s.productRepo.FindMarketplaceLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading linked products: %w", err)
	}
	unlinked, err := s.productRepo.CountUnlinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting unlinked products: %w", err)
	}
	report.recordSkipped(int(unlinked))
	s.metrics.RecordSkipped(ctx, telemetry.SyncUnitProduct, telemetry.SkipReasonUnlinked, int(unlinked))

	for i := range linked {
		p := &linked[i]
		if err := s.gateway.UpdateProductStock(ctx, *p.MarketplaceProductID, p.Stock); err != nil {
			report.recordFailure(fmt.Sprintf("product %s: %v", p.ID, err))
			s.metrics.RecordFailed(ctx, telemetry.SyncUnitProduct, 1)
			s.logger.Warn("Product stock push failed",
				zap.String("product_id", p.ID.String()),
				zap.String("marketplace_product_id", *p.MarketplaceProductID),
				zap.Error(err))
			continue
		}
		report.recordSynced()
		s.metrics.RecordSynced(ctx, telemetry.SyncUnitProduct, 1)
	}

	s.logSummary("product sync finished", report)
	return report.finalize(startedAt), nil
}

// SyncVariants pushes the stock of every fully mapped variant. Variants
// missing either mapping field are counted as skipped, never failed.
func (s *StockSyncService) SyncVariants(ctx context.Context) (*SyncReport, error) {
	startedAt := time.Now()
	report := newSyncReport()

	mapped, err := s.variantRepo.FindMarketplaceLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading mapped variants: %w", err)
	}
	unmapped, err := s.variantRepo.CountUnmapped(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting unmapped variants: %w", err)
	}
	report.recordSkipped(int(unmapped))
	s.metrics.RecordSkipped(ctx, telemetry.SyncUnitVariant, telemetry.SkipReasonUnmapped, int(unmapped))

	for i := range mapped {
		v := &mapped[i]
		if err := s.gateway.UpdateOptionStock(ctx, *v.MarketplaceChannelProductID, *v.MarketplaceOptionID, v.Stock); err != nil {
			report.recordFailure(fmt.Sprintf("variant %s: %v", v.ID, err))
			s.metrics.RecordFailed(ctx, telemetry.SyncUnitVariant, 1)
			s.logger.Warn("Variant stock push failed",
				zap.String("variant_id", v.ID.String()),
				zap.String("option_id", *v.MarketplaceOptionID),
				zap.Error(err))
			continue
		}
		report.recordSynced()
		s.metrics.RecordSynced(ctx, telemetry.SyncUnitVariant, 1)
	}

	s.logSummary("variant sync finished", report)
	return report.finalize(startedAt), nil
}

// DrainQueue pushes pending queue entries in enqueue order, oldest first.
// Each entry carries the absolute stock committed at enqueue time; the
// drain never recomputes. Failed entries stay in the table with their
// error for inspection.
func (s *StockSyncService) DrainQueue(ctx context.Context) (*SyncReport, error) {
	startedAt := time.Now()
	report := newSyncReport()

	for {
		pending, err := s.queueRepo.FindPending(ctx, s.queueBatchSize)
		if err != nil {
			return nil, fmt.Errorf("loading pending queue entries: %w", err)
		}
		if len(pending) == 0 {
			break
		}

		for i := range pending {
			entry := &pending[i]
			if err := s.pushEntry(ctx, entry); err != nil {
				entry.MarkFailed(err.Error())
				report.recordFailure(fmt.Sprintf("queue entry %s: %v", entry.ID, err))
				s.metrics.RecordFailed(ctx, entryUnit(entry), 1)
				s.logger.Warn("Queue entry push failed",
					zap.String("entry_id", entry.ID.String()),
					zap.String("product_id", entry.ProductID.String()),
					zap.Int64("target_stock", entry.TargetStock),
					zap.Error(err))
			} else {
				entry.MarkDone()
				report.recordSynced()
				s.metrics.RecordSynced(ctx, entryUnit(entry), 1)
			}
			if err := s.queueRepo.Save(ctx, entry); err != nil {
				return nil, fmt.Errorf("saving queue entry %s: %w", entry.ID, err)
			}
		}

		if len(pending) < s.queueBatchSize {
			break
		}
	}

	s.logSummary("queue drain finished", report)
	return report.finalize(startedAt), nil
}

// SyncAll drains the queue first, then pushes current catalog truth for
// every linked product and mapped variant so the catalog values land last.
func (s *StockSyncService) SyncAll(ctx context.Context) (*SyncReport, error) {
	startedAt := time.Now()
	report := newSyncReport()

	queueReport, err := s.DrainQueue(ctx)
	if err != nil {
		return nil, err
	}
	report.merge(queueReport)

	productReport, err := s.SyncProducts(ctx)
	if err != nil {
		return nil, err
	}
	report.merge(productReport)

	variantReport, err := s.SyncVariants(ctx)
	if err != nil {
		return nil, err
	}
	report.merge(variantReport)

	s.metrics.RecordRunDuration(ctx, time.Since(startedAt))
	return report.finalize(startedAt), nil
}

func (s *StockSyncService) pushEntry(ctx context.Context, entry *syncdomain.QueueEntry) error {
	if entry.IsVariantUnit() {
		return s.gateway.UpdateOptionStock(ctx, entry.MarketplaceProductID, *entry.MarketplaceOptionID, entry.TargetStock)
	}
	return s.gateway.UpdateProductStock(ctx, entry.MarketplaceProductID, entry.TargetStock)
}

func (s *StockSyncService) logSummary(msg string, report *SyncReport) {
	s.logger.Info(msg,
		zap.Int("synced", report.SyncedCount),
		zap.Int("failed", report.FailedCount),
		zap.Int("skipped", report.SkippedCount))
}

func entryUnit(entry *syncdomain.QueueEntry) string {
	if entry.IsVariantUnit() {
		return telemetry.SyncUnitVariant
	}
	return telemetry.SyncUnitProduct
}
