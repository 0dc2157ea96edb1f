package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	integrationapp "github.com/shopcore/backend/internal/application/integration"
	"github.com/shopcore/backend/internal/infrastructure/scheduler"
	"github.com/shopcore/backend/internal/interfaces/http/dto"
)

// Sync scope values accepted by the manual trigger
const (
	SyncScopeProducts = "products"
	SyncScopeVariants = "variants"
	SyncScopeAll      = "all"
)

// TriggerSyncRequest selects which batch the manual trigger runs
type TriggerSyncRequest struct {
	Scope string `json:"scope" binding:"omitempty,oneof=products variants all"`
}

// SyncHandler handles stock synchronization API endpoints. The synchronous
// trigger runs the same batch functions the scheduler runs, so behavior is
// identical regardless of caller.
type SyncHandler struct {
	BaseHandler
	syncService *integrationapp.StockSyncService
	sched       *scheduler.StockSyncScheduler
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *integrationapp.StockSyncService, sched *scheduler.StockSyncScheduler) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		sched:       sched,
	}
}

// Trigger runs a sync batch synchronously and returns its report
// POST /sync/stock
func (h *SyncHandler) Trigger(c *gin.Context) {
	req := TriggerSyncRequest{Scope: SyncScopeAll}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Error(c, 400, dto.ErrCodeValidation, "Invalid request body: "+err.Error())
			return
		}
		if req.Scope == "" {
			req.Scope = SyncScopeAll
		}
	}

	ctx := c.Request.Context()
	var (
		report *integrationapp.SyncReport
		err    error
	)
	switch req.Scope {
	case SyncScopeProducts:
		report, err = h.syncService.SyncProducts(ctx)
	case SyncScopeVariants:
		report, err = h.syncService.SyncVariants(ctx)
	default:
		report, err = h.syncService.SyncAll(ctx)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// TriggerBackground starts a scheduler-managed run in the background
// POST /sync/runs
func (h *SyncHandler) TriggerBackground(c *gin.Context) {
	run, err := h.sched.TriggerManualRun()
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrSyncAlreadyRunning):
			h.Conflict(c, dto.ErrCodeSyncInProgress, "A stock sync run is already in progress")
		case errors.Is(err, scheduler.ErrSchedulerNotRunning):
			h.Conflict(c, dto.ErrCodeConflict, "The sync scheduler is not running")
		default:
			h.HandleError(c, err)
		}
		return
	}
	h.Success(c, run)
}

// Status returns the scheduler state
// GET /sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	h.Success(c, h.sched.GetStatus())
}

// Runs returns recent run history, newest first
// GET /sync/runs
func (h *SyncHandler) Runs(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}
	h.Success(c, h.sched.GetRunHistory(limit))
}
