// Package scheduler provides the periodic stock synchronization loop.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Stock Sync Run Types
// ---------------------------------------------------------------------------

// StockSyncRunStatus represents the status of a stock sync run
type StockSyncRunStatus string

const (
	StockSyncRunStatusRunning StockSyncRunStatus = "RUNNING"
	StockSyncRunStatusSuccess StockSyncRunStatus = "SUCCESS"
	StockSyncRunStatusPartial StockSyncRunStatus = "PARTIAL"
	StockSyncRunStatusFailed  StockSyncRunStatus = "FAILED"
)

// StockSyncRunTrigger records what started a run
type StockSyncRunTrigger string

const (
	StockSyncTriggerInterval StockSyncRunTrigger = "INTERVAL"
	StockSyncTriggerManual   StockSyncRunTrigger = "MANUAL"
)

// StockSyncRun is a single execution of the stock synchronization batch
type StockSyncRun struct {
	ID          uuid.UUID
	Trigger     StockSyncRunTrigger
	Status      StockSyncRunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time

	SyncedCount  int
	FailedCount  int
	SkippedCount int
}

func newStockSyncRun(trigger StockSyncRunTrigger) *StockSyncRun {
	return &StockSyncRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    StockSyncRunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Complete records the run result and derives the final status.
func (r *StockSyncRun) Complete(result StockSyncResult) {
	now := time.Now()
	r.CompletedAt = &now
	r.SyncedCount = result.Synced
	r.FailedCount = result.Failed
	r.SkippedCount = result.Skipped

	switch {
	case result.Failed == 0:
		r.Status = StockSyncRunStatusSuccess
	case result.Synced > 0:
		r.Status = StockSyncRunStatusPartial
	default:
		r.Status = StockSyncRunStatusFailed
	}
}

// Fail marks the run as failed
func (r *StockSyncRun) Fail(err string) {
	now := time.Now()
	r.CompletedAt = &now
	r.Status = StockSyncRunStatusFailed
	r.Error = err
}

// ---------------------------------------------------------------------------
// StockSyncExecutor Interface
// ---------------------------------------------------------------------------

// StockSyncResult aggregates the outcome counts of one batch execution
type StockSyncResult struct {
	Synced  int
	Failed  int
	Skipped int
}

// StockSyncExecutor runs a full stock synchronization batch.
// Both the interval loop and the manual trigger go through the same executor.
type StockSyncExecutor interface {
	Execute(ctx context.Context) (StockSyncResult, error)
}

// StockSyncExecutorFunc adapts a function to the StockSyncExecutor interface
type StockSyncExecutorFunc func(ctx context.Context) (StockSyncResult, error)

func (f StockSyncExecutorFunc) Execute(ctx context.Context) (StockSyncResult, error) {
	return f(ctx)
}

// ---------------------------------------------------------------------------
// StockSyncSchedulerConfig
// ---------------------------------------------------------------------------

// StockSyncSchedulerConfig holds configuration for the stock sync scheduler
type StockSyncSchedulerConfig struct {
	// Enabled indicates if the interval loop is enabled
	Enabled bool
	// Interval is how often a sync run starts
	Interval time.Duration
	// RunTimeout is the maximum time a single run can take
	RunTimeout time.Duration
}

// DefaultStockSyncSchedulerConfig returns default configuration
func DefaultStockSyncSchedulerConfig() StockSyncSchedulerConfig {
	return StockSyncSchedulerConfig{
		Enabled:    true,
		Interval:   30 * time.Minute,
		RunTimeout: 15 * time.Minute,
	}
}

// Validate validates the configuration
func (c *StockSyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// StockSyncScheduler
// ---------------------------------------------------------------------------

// StockSyncScheduler runs stock synchronization on a fixed interval and on
// manual triggers. Runs never overlap: a trigger while a run is in flight
// returns ErrSyncAlreadyRunning, and the interval loop skips the tick.
type StockSyncScheduler struct {
	config   StockSyncSchedulerConfig
	executor StockSyncExecutor
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool

	lastRunAt *time.Time
	nextRunAt *time.Time

	historyMu  sync.RWMutex
	history    []*StockSyncRun
	maxHistory int
}

// NewStockSyncScheduler creates a new stock sync scheduler
func NewStockSyncScheduler(config StockSyncSchedulerConfig, executor StockSyncExecutor, logger *zap.Logger) (*StockSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StockSyncScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		history:    make([]*StockSyncRun, 0, 50),
		maxHistory: 50,
	}, nil
}

// Start starts the interval loop
func (s *StockSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.config.Enabled {
		s.setNextRunAt(time.Now().Add(s.config.Interval))
		s.wg.Add(1)
		go s.intervalLoop(ctx)
	}

	s.logger.Info("Stock sync scheduler started",
		zap.Bool("interval_enabled", s.config.Enabled),
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *StockSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Stock sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Stock sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerManualRun starts a sync run outside the interval schedule.
// Uses a background context so the run survives the HTTP request that
// triggered it.
func (s *StockSyncScheduler) TriggerManualRun() (*StockSyncRun, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil, ErrSchedulerNotRunning
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSyncAlreadyRunning
	}
	s.inFlight = true
	s.mu.Unlock()

	run := newStockSyncRun(StockSyncTriggerManual)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(context.Background(), run)
	}()
	return run, nil
}

func (s *StockSyncScheduler) intervalLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.setNextRunAt(time.Now().Add(s.config.Interval))

			s.mu.Lock()
			if s.inFlight {
				s.mu.Unlock()
				s.logger.Warn("Skipping scheduled stock sync, previous run still in progress")
				continue
			}
			s.inFlight = true
			s.mu.Unlock()

			s.execute(ctx, newStockSyncRun(StockSyncTriggerInterval))
		}
	}
}

// execute runs one batch under the run timeout. Caller must hold the
// inFlight flag; execute releases it.
func (s *StockSyncScheduler) execute(ctx context.Context, run *StockSyncRun) {
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		now := time.Now()
		s.lastRunAt = &now
		s.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	s.logger.Info("Stock sync run started",
		zap.String("run_id", run.ID.String()),
		zap.String("trigger", string(run.Trigger)),
	)

	result, err := s.executor.Execute(runCtx)
	if err != nil {
		run.Fail(err.Error())
		s.logger.Error("Stock sync run failed",
			zap.String("run_id", run.ID.String()),
			zap.String("trigger", string(run.Trigger)),
			zap.Error(err),
		)
		s.addToHistory(run)
		return
	}

	run.Complete(result)
	s.logger.Info("Stock sync run completed",
		zap.String("run_id", run.ID.String()),
		zap.String("trigger", string(run.Trigger)),
		zap.String("status", string(run.Status)),
		zap.Int("synced", run.SyncedCount),
		zap.Int("failed", run.FailedCount),
		zap.Int("skipped", run.SkippedCount),
	)
	s.addToHistory(run)
}

func (s *StockSyncScheduler) addToHistory(run *StockSyncRun) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*StockSyncRun{run}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetRunHistory returns recent runs, newest first
func (s *StockSyncScheduler) GetRunHistory(limit int) []*StockSyncRun {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*StockSyncRun, limit)
	copy(result, s.history[:limit])
	return result
}

func (s *StockSyncScheduler) setNextRunAt(t time.Time) {
	s.mu.Lock()
	s.nextRunAt = &t
	s.mu.Unlock()
}

// GetStatus returns the current status of the scheduler
func (s *StockSyncScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"in_flight":   s.inFlight,
		"interval":    s.config.Interval.String(),
		"run_timeout": s.config.RunTimeout.String(),
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
}
