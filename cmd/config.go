package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"orderflow/internal/pkg/errs"
)

// Lock backends accepted by LOCK_BACKEND.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr string

	KafkaBrokers           []string
	KafkaNotificationTopic string
	KafkaAnalyticsTopic    string
	KafkaOrderChangedTopic string

	WebhookURLs    []string
	WebhookTimeout time.Duration

	LockBackend string
	LockTTL     time.Duration

	PendingOrderTTL time.Duration
	ExpirySchedule  string
	ExpiryBatchSize int
}

//nolint:gochecknoglobals // defaults table
var defaults = map[string]string{
	"HTTP_PORT":                 "8080",
	"DB_HOST":                   "localhost",
	"DB_PORT":                   "5432",
	"DB_USER":                   "postgres",
	"DB_PASSWORD":               "postgres",
	"DB_NAME":                   "orderflow",
	"DB_SSLMODE":                "disable",
	"REDIS_ADDR":                "localhost:6379",
	"KAFKA_BROKERS":             "localhost:9092",
	"KAFKA_NOTIFICATION_TOPIC":  "order.notifications",
	"KAFKA_ANALYTICS_TOPIC":     "order.analytics",
	"KAFKA_ORDER_CHANGED_TOPIC": "order.changed",
	"WEBHOOK_URLS":              "",
	"WEBHOOK_TIMEOUT":           "5s",
	"LOCK_BACKEND":              LockBackendMemory,
	"LOCK_TTL":                  "30s",
	"PENDING_ORDER_TTL":         "24h",
	"EXPIRY_SCHEDULE":           "0 * * * * *",
	"EXPIRY_BATCH_SIZE":         "100",
}

// LoadConfig reads the configuration from the process environment.
// Unset variables fall back to their defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom reads the configuration through getenv. All invalid values are
// reported together.
func LoadConfigFrom(getenv func(string) string) (Config, error) {
	get := func(key string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return defaults[key]
	}

	var errList []error
	duration := func(key string) time.Duration {
		d, err := time.ParseDuration(get(key))
		if err != nil || d <= 0 {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause(key,
				fmt.Errorf("%q is not a positive duration", get(key))))
		}
		return d
	}

	c := Config{
		HTTPPort:               get("HTTP_PORT"),
		DBHost:                 get("DB_HOST"),
		DBPort:                 get("DB_PORT"),
		DBUser:                 get("DB_USER"),
		DBPassword:             get("DB_PASSWORD"),
		DBName:                 get("DB_NAME"),
		DBSslMode:              get("DB_SSLMODE"),
		RedisAddr:              get("REDIS_ADDR"),
		KafkaBrokers:           splitList(get("KAFKA_BROKERS")),
		KafkaNotificationTopic: get("KAFKA_NOTIFICATION_TOPIC"),
		KafkaAnalyticsTopic:    get("KAFKA_ANALYTICS_TOPIC"),
		KafkaOrderChangedTopic: get("KAFKA_ORDER_CHANGED_TOPIC"),
		WebhookURLs:            splitList(get("WEBHOOK_URLS")),
		WebhookTimeout:         duration("WEBHOOK_TIMEOUT"),
		LockBackend:            strings.ToLower(get("LOCK_BACKEND")),
		LockTTL:                duration("LOCK_TTL"),
		PendingOrderTTL:        duration("PENDING_ORDER_TTL"),
		ExpirySchedule:         get("EXPIRY_SCHEDULE"),
	}

	batchSize, err := strconv.Atoi(get("EXPIRY_BATCH_SIZE"))
	c.ExpiryBatchSize = batchSize
	if err != nil || batchSize <= 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("EXPIRY_BATCH_SIZE",
			fmt.Errorf("%q is not a positive integer", get("EXPIRY_BATCH_SIZE"))))
	}
	if c.LockBackend != LockBackendMemory && c.LockBackend != LockBackendRedis {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("LOCK_BACKEND",
			fmt.Errorf("%q is neither %s nor %s", c.LockBackend, LockBackendMemory, LockBackendRedis)))
	}
	if len(c.KafkaBrokers) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("KAFKA_BROKERS"))
	}

	if err := errors.Join(errList...); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DSN returns the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
