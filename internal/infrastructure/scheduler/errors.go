package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a run on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSyncAlreadyRunning is returned when a sync run is already in progress
	ErrSyncAlreadyRunning = errors.New("stock sync already in progress")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
