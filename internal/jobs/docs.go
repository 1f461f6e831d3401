// Package jobs provides scheduled background tasks for the order lifecycle service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// PendingOrderExpiryJob cancels orders that stayed Pending longer than the configured
// TTL. Each run lists a bounded batch of the oldest candidates and cancels every one
// through the order state machine with the reason "pending order expired", so the
// cancellation goes through the usual lock, hooks and events.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(expireHandler, jobs.ExpiryConfig{
//		Schedule:  "0 * * * * *",
//		TTL:       24 * time.Hour,
//		BatchSize: 100,
//	}, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Schedules are cron expressions with a leading seconds field.
//
// # Error Handling
//
// Orders that left Pending or are locked by a concurrent transition since they were
// listed are skipped silently. Every other failure is logged and retried on the next run.
package jobs
