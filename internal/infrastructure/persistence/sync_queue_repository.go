package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcore/backend/internal/domain/shared"
	syncdomain "github.com/shopcore/backend/internal/domain/sync"
)

// GormSyncQueueRepository implements sync.QueueRepository using GORM
type GormSyncQueueRepository struct {
	db *gorm.DB
}

// NewGormSyncQueueRepository creates a new GormSyncQueueRepository
func NewGormSyncQueueRepository(db *gorm.DB) *GormSyncQueueRepository {
	return &GormSyncQueueRepository{db: db}
}

// Save creates or updates queue entries
func (r *GormSyncQueueRepository) Save(ctx context.Context, entries ...*syncdomain.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(entries).Error
}

// FindByID finds a queue entry by its ID
func (r *GormSyncQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.QueueEntry, error) {
	var entry syncdomain.QueueEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindPending returns pending entries oldest first, up to limit
func (r *GormSyncQueueRepository) FindPending(ctx context.Context, limit int) ([]syncdomain.QueueEntry, error) {
	var entries []syncdomain.QueueEntry
	query := r.db.WithContext(ctx).
		Where("status = ?", syncdomain.EntryStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByStatus counts queue entries in a given status
func (r *GormSyncQueueRepository) CountByStatus(ctx context.Context, status syncdomain.EntryStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&syncdomain.QueueEntry{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormSyncQueueRepository implements QueueRepository
var _ syncdomain.QueueRepository = (*GormSyncQueueRepository)(nil)
