package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyFormat = "orderflow:transition-lock:%s"

// unlockScript deletes the lock only when it still holds the caller's token, so an
// expired lock taken over by another holder is never released by the previous one.
var unlockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// TransitionLock implements ports.TransitionLocker across processes with SET NX PX.
// The lock value is the token returned to the holder; nothing is kept in process.
//
// The TTL bounds how long a crashed holder blocks an order. It must be longer than
// the slowest transition, hooks and persistence included.
type TransitionLock struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewTransitionLock creates a lock whose entries expire after ttl.
func NewTransitionLock(client redis.UniversalClient, ttl time.Duration) *TransitionLock {
	return &TransitionLock{client: client, ttl: ttl}
}

// TryAcquire sets the lock key if it does not exist and returns the holder token.
func (l *TransitionLock) TryAcquire(ctx context.Context, orderID string) (string, bool, error) {
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, fmt.Sprintf(lockKeyFormat, orderID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("set lock for order %s: %w", orderID, err)
	}
	if !acquired {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the lock if it still carries token.
func (l *TransitionLock) Release(ctx context.Context, orderID, token string) error {
	if err := unlockScript.Run(ctx, l.client, []string{fmt.Sprintf(lockKeyFormat, orderID)}, token).Err(); err != nil {
		return fmt.Errorf("release lock for order %s: %w", orderID, err)
	}
	return nil
}
