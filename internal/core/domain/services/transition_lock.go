package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TransitionLock is an in-process registry of orders with a transition in flight.
// It implements ports.TransitionLocker for single instance deployments.
//
// The zero value is not usable; create instances with NewTransitionLock.
type TransitionLock struct {
	mu   sync.Mutex
	held map[string]string
}

// NewTransitionLock creates an empty lock registry.
func NewTransitionLock() *TransitionLock {
	return &TransitionLock{held: make(map[string]string)}
}

// TryAcquire marks orderID as locked and returns the holder token. It returns
// false without waiting when the order is already locked.
func (l *TransitionLock) TryAcquire(_ context.Context, orderID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[orderID]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[orderID] = token
	return token, true, nil
}

// Release unlocks orderID when token belongs to the current holder.
func (l *TransitionLock) Release(_ context.Context, orderID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[orderID] == token {
		delete(l.held, orderID)
	}
	return nil
}

// Held reports whether orderID is currently locked.
func (l *TransitionLock) Held(orderID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.held[orderID]
	return ok
}
