package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	kafka_adapter "orderflow/internal/adapters/out/kafka"
	postgres_adapter "orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/postgres/paymentrepo"
	redis_adapter "orderflow/internal/adapters/out/redis"
	"orderflow/internal/adapters/out/webhook"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// CompositionRoot owns every long-lived dependency of the service and builds the
// command and query handlers on top of them.
type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory *postgres_adapter.GormUnitOfWorkFactory
	lifecycle  *services.OrderLifecycle
	publisher  *services.EventPublisher

	redisClient *redis.Client
	writers     []*kafka.Writer
}

// NewCompositionRoot connects to Redis, creates the Kafka writers and wires the order
// lifecycle. Collectors are registered with reg.
func NewCompositionRoot(
	ctx context.Context,
	config Config,
	gormDB *gorm.DB,
	reg prometheus.Registerer,
	logger *slog.Logger,
) (*CompositionRoot, error) {
	c := &CompositionRoot{
		gormDB:     gormDB,
		uowFactory: postgres_adapter.NewGormUnitOfWorkFactory(gormDB),
		publisher:  services.NewEventPublisher(logger),
	}

	redisClient, err := redis_adapter.NewClient(ctx, config.RedisAddr)
	if err != nil {
		return nil, err
	}
	c.redisClient = redisClient

	m, err := metrics.New(reg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	var locker ports.TransitionLocker
	switch config.LockBackend {
	case LockBackendRedis:
		locker = redis_adapter.NewTransitionLock(redisClient, config.LockTTL)
	default:
		locker = services.NewTransitionLock()
	}

	notificationWriter := c.writer(config.KafkaBrokers, config.KafkaNotificationTopic)
	analyticsWriter := c.writer(config.KafkaBrokers, config.KafkaAnalyticsTopic)
	orderChangedWriter := c.writer(config.KafkaBrokers, config.KafkaOrderChangedTopic)

	pipeline, err := services.NewHookPipeline(services.Collaborators{
		Inventory:    redis_adapter.NewInventory(redisClient),
		Payment:      paymentrepo.NewGormPaymentVerifier(gormDB),
		Notification: kafka_adapter.NewNotificationPublisher(notificationWriter),
		Webhooks:     webhook.NewDispatcher(config.WebhookURLs, config.WebhookTimeout),
		Analytics:    kafka_adapter.NewAnalyticsRecorder(analyticsWriter),
	}, logger, services.WithHookObserver(m))
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.publisher.Subscribe(m)
	c.publisher.Subscribe(kafka_adapter.NewEventForwarder(orderChangedWriter))

	c.lifecycle, err = services.NewOrderLifecycle(m.InstrumentLocker(locker), pipeline, c.publisher, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "Order lifecycle wired",
		"lock_backend", config.LockBackend,
		"webhooks", len(config.WebhookURLs),
	)
	return c, nil
}

func (c *CompositionRoot) writer(brokers []string, topic string) *kafka.Writer {
	w := kafka_adapter.NewWriter(brokers, topic)
	c.writers = append(c.writers, w)
	return w
}

// Close flushes the Kafka writers and closes the Redis client.
func (c *CompositionRoot) Close() error {
	var errList []error
	for _, w := range c.writers {
		errList = append(errList, w.Close())
	}
	if c.redisClient != nil {
		errList = append(errList, c.redisClient.Close())
	}
	return errors.Join(errList...)
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.lifecycle)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	return commands.NewTransitionOrderCommandHandler(c.orderUoWFactory(), c.lifecycle)
}

func (c *CompositionRoot) CreateExpirePendingOrdersCommandHandler() commands.ExpirePendingOrdersCommandHandler {
	return commands.NewExpirePendingOrdersCommandHandler(c.orderUoWFactory(), c.lifecycle)
}

func (c *CompositionRoot) CreateGetOrderStatusQueryHandler() queries.GetOrderStatusQueryHandler {
	return queries.NewGetOrderStatusQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOrderHistoryQueryHandler() queries.GetOrderHistoryQueryHandler {
	return queries.NewGetOrderHistoryQueryHandler(c.gormDB)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
