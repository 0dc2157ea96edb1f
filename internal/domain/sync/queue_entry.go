package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopcore/backend/internal/domain/shared"
)

// EntryStatus represents the status of a stock sync queue entry
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "pending"
	EntryStatusDone    EntryStatus = "done"
	EntryStatusFailed  EntryStatus = "failed"
)

// QueueEntry is a durable record of one pending stock push to the
// marketplace. TargetStock is the value already committed in the ledger at
// enqueue time: a push instruction, not a recompute instruction. An entry
// targets exactly one of product or variant; VariantID is nil for
// product-unit entries.
type QueueEntry struct {
	shared.BaseEntity
	ProductID            uuid.UUID   `gorm:"type:uuid;not null;index"`
	VariantID            *uuid.UUID  `gorm:"type:uuid;index"`
	MarketplaceProductID string      `gorm:"type:varchar(64);not null"`
	MarketplaceOptionID  *string     `gorm:"type:varchar(64)"`
	TargetStock          int64       `gorm:"not null"`
	Status               EntryStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	LastError            string      `gorm:"type:varchar(500)"`
	ProcessedAt          *time.Time
}

// TableName returns the table name for GORM
func (QueueEntry) TableName() string {
	return "stock_sync_queue"
}

// NewProductEntry creates a product-unit queue entry
func NewProductEntry(productID uuid.UUID, marketplaceProductID string, targetStock int64) (*QueueEntry, error) {
	if marketplaceProductID == "" {
		return nil, shared.NewDomainError("INVALID_MARKETPLACE_ID", "Marketplace product ID cannot be empty")
	}
	return &QueueEntry{
		BaseEntity:           shared.NewBaseEntity(),
		ProductID:            productID,
		MarketplaceProductID: marketplaceProductID,
		TargetStock:          targetStock,
		Status:               EntryStatusPending,
	}, nil
}

// NewVariantEntry creates a variant-unit queue entry
func NewVariantEntry(productID, variantID uuid.UUID, channelProductID, optionID string, targetStock int64) (*QueueEntry, error) {
	if channelProductID == "" || optionID == "" {
		return nil, shared.NewDomainError("INVALID_MAPPING", "Variant entries require both marketplace identifiers")
	}
	return &QueueEntry{
		BaseEntity:           shared.NewBaseEntity(),
		ProductID:            productID,
		VariantID:            &variantID,
		MarketplaceProductID: channelProductID,
		MarketplaceOptionID:  &optionID,
		TargetStock:          targetStock,
		Status:               EntryStatusPending,
	}, nil
}

// IsVariantUnit reports whether the entry targets a variant
func (e *QueueEntry) IsVariantUnit() bool {
	return e.VariantID != nil
}

// MarkDone marks the entry as pushed
func (e *QueueEntry) MarkDone() {
	now := time.Now()
	e.Status = EntryStatusDone
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records the failure and keeps the entry for inspection
func (e *QueueEntry) MarkFailed(errMsg string) {
	now := time.Now()
	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}
	e.Status = EntryStatusFailed
	e.LastError = errMsg
	e.ProcessedAt = &now
	e.UpdatedAt = now
}
