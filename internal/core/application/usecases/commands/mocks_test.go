package commands_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, snapshot order.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, snapshot order.Snapshot, expectedVersion int64) error {
	args := m.Called(ctx, snapshot, expectedVersion)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListPendingCreatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

// collaboratorsStub satisfies every hook collaborator; failures are configured per method
// and every call is counted.
type collaboratorsStub struct {
	mu     sync.Mutex
	errors map[string]error
	counts map[string]int
}

func (s *collaboratorsStub) calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[method]
}

func (s *collaboratorsStub) fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errors == nil {
		s.errors = make(map[string]error)
	}
	s.errors[method] = err
}

func (s *collaboratorsStub) result(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	s.counts[method]++
	return s.errors[method]
}

func (s *collaboratorsStub) CheckAvailability(context.Context, []order.LineItem) error {
	return s.result("CheckAvailability")
}
func (s *collaboratorsStub) Reserve(context.Context, kernel.UUID, []order.LineItem) error {
	return s.result("Reserve")
}
func (s *collaboratorsStub) Release(context.Context, kernel.UUID) error {
	return s.result("Release")
}
func (s *collaboratorsStub) Verify(context.Context, kernel.UUID) error {
	return s.result("Verify")
}
func (s *collaboratorsStub) Notify(context.Context, kernel.UUID, order.Status) error {
	return s.result("Notify")
}
func (s *collaboratorsStub) Trigger(context.Context, kernel.UUID, order.Status, order.Status) error {
	return s.result("Trigger")
}
func (s *collaboratorsStub) Record(context.Context, kernel.UUID, order.Status, order.Status) error {
	return s.result("Record")
}

func newLifecycle(t *testing.T, stub *collaboratorsStub) *services.OrderLifecycle {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	pipeline, err := services.NewHookPipeline(services.Collaborators{
		Inventory:    stub,
		Payment:      stub,
		Notification: stub,
		Webhooks:     stub,
		Analytics:    stub,
	}, logger)
	require.NoError(t, err)

	lifecycle, err := services.NewOrderLifecycle(
		services.NewTransitionLock(),
		pipeline,
		services.NewEventPublisher(logger),
		logger,
	)
	require.NoError(t, err)
	return lifecycle
}

func testItems(t *testing.T) []order.LineItem {
	t.Helper()
	item, err := order.NewLineItem(1, 2)
	require.NoError(t, err)
	return []order.LineItem{item}
}

func testTotal(t *testing.T) kernel.Money {
	t.Helper()
	total, err := kernel.NewMoney(10000)
	require.NoError(t, err)
	return total
}

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), testItems(t), testTotal(t), time.Now())
	require.NoError(t, err)
	return o
}
