package jobs_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPendingOrderExpirer struct{ mock.Mock }

func (m *MockPendingOrderExpirer) Handle(ctx context.Context, cmd commands.ExpirePendingOrdersCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPendingOrderExpiryJob_RunOnce(t *testing.T) {
	t.Run("should expire orders older than the ttl", func(t *testing.T) {
		expirer := new(MockPendingOrderExpirer)
		before := time.Now()
		expirer.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.ExpirePendingOrdersCommand) bool {
			cutoff := cmd.Cutoff()
			return cmd.Limit() == 25 &&
				!cutoff.Before(before.Add(-time.Hour)) &&
				!cutoff.After(time.Now().Add(-time.Hour))
		})).Return(3, nil).Once()

		job := jobs.NewPendingOrderExpiryJob(expirer, "0 * * * * *", time.Hour, 25, discardLogger())
		expired, err := job.RunOnce(t.Context())

		require.NoError(t, err)
		assert.Equal(t, 3, expired)
		expirer.AssertExpectations(t)
	})

	t.Run("should return handler errors", func(t *testing.T) {
		expirer := new(MockPendingOrderExpirer)
		expirer.On("Handle", mock.Anything, mock.Anything).Return(1, errors.New("database unavailable")).Once()

		job := jobs.NewPendingOrderExpiryJob(expirer, "0 * * * * *", time.Hour, 25, discardLogger())
		expired, err := job.RunOnce(t.Context())

		require.EqualError(t, err, "database unavailable")
		assert.Equal(t, 1, expired)
	})

	t.Run("should reject a non-positive batch size", func(t *testing.T) {
		expirer := new(MockPendingOrderExpirer)

		job := jobs.NewPendingOrderExpiryJob(expirer, "0 * * * * *", time.Hour, 0, discardLogger())
		_, err := job.RunOnce(t.Context())

		require.Error(t, err)
		expirer.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}

func TestPendingOrderExpiryJob_Schedule(t *testing.T) {
	t.Run("should run on schedule", func(t *testing.T) {
		expirer := new(MockPendingOrderExpirer)
		ran := make(chan struct{}, 10)
		expirer.On("Handle", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { ran <- struct{}{} }).
			Return(0, nil)

		job := jobs.NewPendingOrderExpiryJob(expirer, "* * * * * *", time.Hour, 10, discardLogger())
		require.NoError(t, job.Start())
		defer job.Stop()

		select {
		case <-ran:
		case <-time.After(3 * time.Second):
			t.Fatal("job did not run within 3 seconds")
		}
	})

	t.Run("should reject an invalid schedule", func(t *testing.T) {
		job := jobs.NewPendingOrderExpiryJob(new(MockPendingOrderExpirer), "every minute", time.Hour, 10, discardLogger())

		require.Error(t, job.Start())
	})
}

func TestJobManager(t *testing.T) {
	t.Run("should wrap start errors", func(t *testing.T) {
		manager := jobs.NewJobManager(new(MockPendingOrderExpirer), jobs.ExpiryConfig{
			Schedule: "not a schedule", TTL: time.Hour, BatchSize: 10,
		}, discardLogger())

		err := manager.StartAll()

		require.ErrorContains(t, err, "failed to start pending order expiry job")
	})

	t.Run("should start and stop", func(t *testing.T) {
		manager := jobs.NewJobManager(new(MockPendingOrderExpirer), jobs.ExpiryConfig{
			Schedule: "0 0 0 1 1 *", TTL: time.Hour, BatchSize: 10,
		}, discardLogger())

		require.NoError(t, manager.StartAll())
		manager.StopAll()
	})
}
