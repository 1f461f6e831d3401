// Package metrics exposes Prometheus instrumentation of the order lifecycle.
// Metrics subscribes to lifecycle events, observes hook failures and wraps the
// transition locker to count contention.
package metrics

import (
	"context"
	"errors"

	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orderflow"

// Metrics holds the lifecycle collectors.
type Metrics struct {
	transitions       *prometheus.CounterVec
	failedTransitions *prometheus.CounterVec
	hookFailures      *prometheus.CounterVec
	lockContention    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Committed order transitions by source and target status.",
		}, []string{"from", "to"}),
		failedTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_rolled_back_total",
			Help:      "Transitions rejected by a pre-transition hook, by attempted status.",
		}, []string{"attempted"}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_hook_failures_total",
			Help:      "Failed transition hooks by stage and hook name.",
		}, []string{"stage", "hook"}),
		lockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transition_lock_contention_total",
			Help:      "Transition attempts rejected because another transition held the order lock.",
		}),
	}

	for _, c := range []prometheus.Collector{m.transitions, m.failedTransitions, m.hookFailures, m.lockContention} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handle counts StateChanged and TransitionFailed events. Other events are ignored.
func (m *Metrics) Handle(_ context.Context, event services.Event) error {
	switch e := event.(type) {
	case services.StateChanged:
		m.transitions.WithLabelValues(e.From.String(), e.To.String()).Inc()
	case services.TransitionFailed:
		m.failedTransitions.WithLabelValues(e.AttemptedState.String()).Inc()
	}
	return nil
}

// HookFailed counts a failed hook.
func (m *Metrics) HookFailed(_ context.Context, stage, hook string, _ error) {
	m.hookFailures.WithLabelValues(stage, hook).Inc()
}

// InstrumentLocker wraps l so that every refused acquisition is counted.
func (m *Metrics) InstrumentLocker(l ports.TransitionLocker) ports.TransitionLocker {
	return &instrumentedLocker{next: l, contention: m.lockContention}
}

type instrumentedLocker struct {
	next       ports.TransitionLocker
	contention prometheus.Counter
}

func (l *instrumentedLocker) TryAcquire(ctx context.Context, orderID string) (string, bool, error) {
	token, acquired, err := l.next.TryAcquire(ctx, orderID)
	if err == nil && !acquired {
		l.contention.Inc()
	}
	return token, acquired, err
}

func (l *instrumentedLocker) Release(ctx context.Context, orderID, token string) error {
	return l.next.Release(ctx, orderID, token)
}

// IsAlreadyRegistered reports whether err comes from registering the same collectors twice.
func IsAlreadyRegistered(err error) bool {
	var are prometheus.AlreadyRegisteredError
	return errors.As(err, &are)
}
