package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics tracks stock synchronization and order stock activity.
// All record methods are nil-safe so callers can run without telemetry.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	syncedTotal  *Counter
	failedTotal  *Counter
	skippedTotal *Counter
	runDuration  *Histogram

	orderPlacedTotal    *Counter
	orderCancelledTotal *Counter
	stockRejectedTotal  *Counter
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(meter metric.Meter, logger *zap.Logger) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  meter,
		logger: logger,
	}

	var err error

	sm.syncedTotal, err = NewCounter(meter,
		"shop_stock_sync_synced_total",
		"Total number of units whose marketplace stock was updated",
		"{units}")
	if err != nil {
		return nil, err
	}

	sm.failedTotal, err = NewCounter(meter,
		"shop_stock_sync_failed_total",
		"Total number of units whose marketplace stock update failed",
		"{units}")
	if err != nil {
		return nil, err
	}

	sm.skippedTotal, err = NewCounter(meter,
		"shop_stock_sync_skipped_total",
		"Total number of units skipped during stock sync",
		"{units}")
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "shop_stock_sync_run_duration_seconds",
		Description: "Duration of a full stock synchronization run",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.orderPlacedTotal, err = NewCounter(meter,
		"shop_order_placed_total",
		"Total number of orders placed",
		"{orders}")
	if err != nil {
		return nil, err
	}

	sm.orderCancelledTotal, err = NewCounter(meter,
		"shop_order_cancelled_total",
		"Total number of orders cancelled",
		"{orders}")
	if err != nil {
		return nil, err
	}

	sm.stockRejectedTotal, err = NewCounter(meter,
		"shop_order_stock_rejected_total",
		"Total number of orders rejected for insufficient stock",
		"{orders}")
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordSynced records successfully synchronized units.
func (sm *SyncMetrics) RecordSynced(ctx context.Context, unit string, count int) {
	if sm == nil || count <= 0 {
		return
	}
	sm.syncedTotal.Add(ctx, int64(count), AttrSyncUnit.String(unit))
}

// RecordFailed records units whose marketplace update failed.
func (sm *SyncMetrics) RecordFailed(ctx context.Context, unit string, count int) {
	if sm == nil || count <= 0 {
		return
	}
	sm.failedTotal.Add(ctx, int64(count), AttrSyncUnit.String(unit))
}

// RecordSkipped records units skipped during sync.
func (sm *SyncMetrics) RecordSkipped(ctx context.Context, unit, reason string, count int) {
	if sm == nil || count <= 0 {
		return
	}
	sm.skippedTotal.Add(ctx, int64(count), AttrSyncUnit.String(unit), AttrSkipReason.String(reason))
}

// RecordRunDuration records the duration of a full sync run.
func (sm *SyncMetrics) RecordRunDuration(ctx context.Context, d time.Duration) {
	if sm == nil {
		return
	}
	sm.runDuration.RecordDuration(ctx, d)
}

// RecordOrderPlaced records a successfully placed order.
func (sm *SyncMetrics) RecordOrderPlaced(ctx context.Context) {
	if sm == nil {
		return
	}
	sm.orderPlacedTotal.Inc(ctx)
}

// RecordOrderCancelled records a cancelled order.
func (sm *SyncMetrics) RecordOrderCancelled(ctx context.Context) {
	if sm == nil {
		return
	}
	sm.orderCancelledTotal.Inc(ctx)
}

// RecordStockRejected records an order rejected for insufficient stock.
func (sm *SyncMetrics) RecordStockRejected(ctx context.Context) {
	if sm == nil {
		return
	}
	sm.stockRejectedTotal.Inc(ctx)
}
