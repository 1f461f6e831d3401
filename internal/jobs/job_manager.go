package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	pendingOrderExpiryJob *PendingOrderExpiryJob
}

// ExpiryConfig configures the pending order expiry job.
type ExpiryConfig struct {
	Schedule  string
	TTL       time.Duration
	BatchSize int
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	expirer PendingOrderExpirer,
	expiry ExpiryConfig,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		pendingOrderExpiryJob: NewPendingOrderExpiryJob(
			expirer, expiry.Schedule, expiry.TTL, expiry.BatchSize, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.pendingOrderExpiryJob.Start(); err != nil {
		return fmt.Errorf("failed to start pending order expiry job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.pendingOrderExpiryJob.Stop()
}
