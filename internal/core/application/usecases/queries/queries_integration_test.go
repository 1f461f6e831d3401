package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	postgres_module "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type OrderQueriesTestSuite struct {
	suite.Suite
	container      *postgres_module.PostgresContainer
	db             *gorm.DB
	orderRepo      *orderrepo.GormOrderRepository
	statusHandler  queries.GetOrderStatusQueryHandler
	historyHandler queries.GetOrderHistoryQueryHandler
}

func (suite *OrderQueriesTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres_module.Run(ctx,
		"postgres:15-alpine",
		postgres_module.WithDatabase("testdb"),
		postgres_module.WithUsername("testuser"),
		postgres_module.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres.Migrate(db))

	suite.orderRepo = orderrepo.NewGormOrderRepository(db, &mockAggregateTracker{})
	suite.statusHandler = queries.NewGetOrderStatusQueryHandler(db)
	suite.historyHandler = queries.NewGetOrderHistoryQueryHandler(db)
}

func (suite *OrderQueriesTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *OrderQueriesTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE orders, order_line_items, order_transitions").Error
	suite.Require().NoError(err)
}

func (suite *OrderQueriesTestSuite) TestGetOrderStatus_ReturnsCurrentState() {
	ctx := context.Background()
	o := suite.storeProcessingOrder(ctx)

	query, err := queries.NewGetOrderStatusQuery(o.ID())
	suite.Require().NoError(err)

	result, err := suite.statusHandler.Handle(ctx, query)

	suite.Require().NoError(err)
	suite.True(o.ID().IsEqual(result.ID))
	suite.True(o.UserID().IsEqual(result.UserID))
	suite.Equal("Processing", result.Status)
	suite.Equal(int64(2), result.Version)
	suite.Equal("100.00", result.TotalAmount.String())
	suite.Equal([]queries.LineItemResponse{{ItemID: 7, Quantity: 2}, {ItemID: 9, Quantity: 1}}, result.Items)
	suite.Equal([]string{"Shipped", "Cancelled", "Failed"}, result.AllowedTransitions)
}

func (suite *OrderQueriesTestSuite) TestGetOrderStatus_NotFound() {
	query, err := queries.NewGetOrderStatusQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	_, err = suite.statusHandler.Handle(context.Background(), query)

	var notFound *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFound)
}

func (suite *OrderQueriesTestSuite) TestGetOrderHistory_ReturnsRecordsInOrder() {
	ctx := context.Background()
	o := suite.storeProcessingOrder(ctx)

	query, err := queries.NewGetOrderHistoryQuery(o.ID())
	suite.Require().NoError(err)

	records, err := suite.historyHandler.Handle(ctx, query)

	suite.Require().NoError(err)
	suite.Require().Len(records, 3)

	suite.Equal(0, records[0].Sequence)
	suite.Equal("Pending", records[0].State)
	suite.Empty(records[0].PreviousState)
	suite.Equal(order.CreationReason, records[0].Reason)

	suite.True(records[1].Rollback)
	suite.Equal("Pending", records[1].State)
	suite.Equal("Processing", records[1].AttemptedState)
	suite.Equal("out of stock", records[1].Error)

	suite.Equal("Processing", records[2].State)
	suite.Equal("Pending", records[2].PreviousState)
	suite.Equal(map[string]string{"warehouse": "north"}, records[2].Context)
	suite.False(records[2].Rollback)
}

func (suite *OrderQueriesTestSuite) TestGetOrderHistory_NotFound() {
	query, err := queries.NewGetOrderHistoryQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	_, err = suite.historyHandler.Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderQueriesTestSuite) TestQueries_RejectZeroValues() {
	_, err := suite.statusHandler.Handle(context.Background(), queries.GetOrderStatusQuery{})
	suite.Require().ErrorIs(err, queries.ErrGetOrderStatusQueryIsNotConstructed)

	_, err = suite.historyHandler.Handle(context.Background(), queries.GetOrderHistoryQuery{})
	suite.Require().ErrorIs(err, queries.ErrGetOrderHistoryQueryIsNotConstructed)

	_, err = queries.NewGetOrderStatusQuery(kernel.UUID{})
	suite.Require().ErrorIs(err, kernel.ErrUUIDIsNotConstructed)
}

// storeProcessingOrder persists an order that went through a rejected and then a
// successful transition to Processing.
func (suite *OrderQueriesTestSuite) storeProcessingOrder(ctx context.Context) *order.Order {
	first, _ := order.NewLineItem(7, 2)
	second, _ := order.NewLineItem(9, 1)
	total, _ := kernel.NewMoney(10000)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), []order.LineItem{first, second}, total, at)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.orderRepo.Add(ctx, o.Snapshot()))

	_, err = o.RecordRollback(order.Pending, order.Processing, "rollback due to error", nil,
		errors.New("out of stock"), at.Add(time.Minute))
	suite.Require().NoError(err)
	_, err = o.Transition(order.Processing, "stock confirmed", map[string]string{"warehouse": "north"},
		at.Add(2*time.Minute))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.orderRepo.Update(ctx, o.Snapshot(), 1))

	return o
}

type mockAggregateTracker struct{}

func (m *mockAggregateTracker) TrackAggregate(_ kernel.UUID, _ any) {
	// No-op for query tests
}

func TestOrderQueriesTestSuite(t *testing.T) {
	suite.Run(t, new(OrderQueriesTestSuite))
}
