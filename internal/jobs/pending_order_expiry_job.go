package jobs

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// PendingOrderExpirer cancels Pending orders created before a cutoff.
// commands.ExpirePendingOrdersCommandHandler implements it.
type PendingOrderExpirer interface {
	Handle(ctx context.Context, cmd commands.ExpirePendingOrdersCommand) (int, error)
}

// PendingOrderExpiryJob cancels orders that stayed Pending longer than a TTL.
// Each run handles at most batchSize orders; the rest are picked up by later runs.
type PendingOrderExpiryJob struct {
	handler   PendingOrderExpirer
	cron      *cron.Cron
	schedule  string
	ttl       time.Duration
	batchSize int
	clock     func() time.Time
	logger    *slog.Logger
}

// NewPendingOrderExpiryJob creates the job. schedule is a cron expression with a
// seconds field, e.g. "0 * * * * *" for every minute.
func NewPendingOrderExpiryJob(
	handler PendingOrderExpirer,
	schedule string,
	ttl time.Duration,
	batchSize int,
	logger *slog.Logger,
) *PendingOrderExpiryJob {
	return &PendingOrderExpiryJob{
		handler:   handler,
		cron:      cron.New(cron.WithSeconds()),
		schedule:  schedule,
		ttl:       ttl,
		batchSize: batchSize,
		clock:     time.Now,
		logger:    logger.With("component", "pending_order_expiry_job"),
	}
}

// Start schedules the job.
func (j *PendingOrderExpiryJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Pending order expiry job started",
		"schedule", j.schedule,
		"ttl", j.ttl.String(),
	)
	return nil
}

// RunOnce expires one batch of orders and returns how many were cancelled.
// Failures are logged as well as returned.
func (j *PendingOrderExpiryJob) RunOnce(ctx context.Context) (int, error) {
	cmd, err := commands.NewExpirePendingOrdersCommand(j.clock().Add(-j.ttl), j.batchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Pending order expiry job misconfigured", "error", err)
		return 0, err
	}

	expired, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Pending order expiry job failed", "expired", expired, "error", err)
		return expired, err
	}
	if expired > 0 {
		j.logger.InfoContext(ctx, "Expired pending orders", "expired", expired)
	}
	return expired, nil
}

// Stop stops the scheduler and waits for a running expiry to finish.
func (j *PendingOrderExpiryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Pending order expiry job stopped")
}
