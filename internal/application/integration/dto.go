package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopcore/backend/internal/domain/integration"
)

// ==================== Sync DTOs ====================

// SyncReport is the result of one sync batch. The batch is not
// transactional: the report communicates partial success.
type SyncReport struct {
	Success      bool     `json:"success"`
	SyncedCount  int      `json:"syncedCount"`
	FailedCount  int      `json:"failedCount"`
	SkippedCount int      `json:"skippedCount"`
	Errors       []string `json:"errors"`
	ElapsedMs    int64    `json:"elapsedMs"`
}

func newSyncReport() *SyncReport {
	return &SyncReport{Errors: make([]string, 0)}
}

func (r *SyncReport) recordSynced()       { r.SyncedCount++ }
func (r *SyncReport) recordSkipped(n int) { r.SkippedCount += n }

func (r *SyncReport) recordFailure(msg string) {
	r.FailedCount++
	r.Errors = append(r.Errors, msg)
}

// finalize computes the success flag and the elapsed time
func (r *SyncReport) finalize(startedAt time.Time) *SyncReport {
	r.Success = r.FailedCount == 0
	r.ElapsedMs = time.Since(startedAt).Milliseconds()
	return r
}

// merge folds another report into this one. Elapsed time is not summed;
// the caller finalizes the combined report against its own start time.
func (r *SyncReport) merge(other *SyncReport) {
	r.SyncedCount += other.SyncedCount
	r.FailedCount += other.FailedCount
	r.SkippedCount += other.SkippedCount
	r.Errors = append(r.Errors, other.Errors...)
}

// ==================== Mapping DTOs ====================

// UnmappedOption records one marketplace option the resolver could not bind
type UnmappedOption struct {
	OptionID   string                     `json:"option_id"`
	Name       string                     `json:"name"`
	SellerCode string                     `json:"seller_code,omitempty"`
	Reason     integration.UnmappedReason `json:"reason"`
}

// ResolveResult is the outcome of resolving one product's options
type ResolveResult struct {
	ProductID uuid.UUID        `json:"product_id"`
	Mapped    int              `json:"mapped"`
	Unmapped  []UnmappedOption `json:"unmapped"`
}

// BuilderReport summarizes one mapping-builder run
type BuilderReport struct {
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
	CandidateCount   int              `json:"candidate_count"`
	RemoteCount      int              `json:"remote_count"`
	LinkedProducts   int              `json:"linked_products"`
	MappedOptions    int              `json:"mapped_options"`
	RehostedImages   int              `json:"rehosted_images"`
	UnmappedProducts []UnmappedEntry  `json:"unmapped_products"`
	UnmappedOptions  []UnmappedOption `json:"unmapped_options"`
}

// UnmappedEntry records one internal product left without a marketplace link
type UnmappedEntry struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
}
