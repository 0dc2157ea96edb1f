package sync

import (
	"context"

	"github.com/google/uuid"
)

// QueueRepository defines persistence operations for the stock sync queue
type QueueRepository interface {
	Save(ctx context.Context, entries ...*QueueEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*QueueEntry, error)
	// FindPending returns pending entries oldest first, up to limit
	FindPending(ctx context.Context, limit int) ([]QueueEntry, error)
	CountByStatus(ctx context.Context, status EntryStatus) (int64, error)
}
