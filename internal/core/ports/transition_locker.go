package ports

import (
	"context"
)

// TransitionLocker grants per-order exclusion for state transitions.
//
// TryAcquire never blocks waiting for a holder: it returns acquired == false immediately
// when the lock for orderID is already held. A successful TryAcquire returns a token
// unique to that acquisition; Release only unlocks when the token still matches, so a
// holder whose lock expired and was taken over cannot release the new holder's lock.
// Releasing with a stale token, or a lock that is not held, is a no-op.
type TransitionLocker interface {
	TryAcquire(ctx context.Context, orderID string) (token string, acquired bool, err error)
	Release(ctx context.Context, orderID, token string) error
}
