package order

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrRollbackCauseIsRequired is returned when a rollback is recorded without the error that triggered it.
	ErrRollbackCauseIsRequired = errs.NewValueIsRequiredError("rollback cause")
)

// CreationReason is the reason stored in the first history record of every order.
const CreationReason = "order created"

// Order is the aggregate root of the lifecycle domain. It owns its line items and
// an append-only history of TransitionRecord values.
//
// Order follows these invariants:
//   - Status always equals the state of the last history record
//   - The first history record is the Pending creation record
//   - Version starts at 1 and grows by exactly 1 with every appended record,
//     so len(History()) == Version()
//   - Only edges of the transition table are ever committed
//
// Order is not safe for concurrent mutation; services.OrderStateMachine serializes
// access to it and only hands out Snapshot copies.
type Order struct {
	id        kernel.UUID
	userID    kernel.UUID
	items     []LineItem
	total     kernel.Money
	status    Status
	version   int64
	createdAt time.Time
	updatedAt time.Time
	history   []TransitionRecord

	isConstructed bool
}

// NewOrder creates a Pending order with version 1 and its creation record.
//
// Parameters:
//   - id: order identifier
//   - userID: identifier of the owning user
//   - items: at least one line item
//   - total: positive total amount
//   - at: creation time, also used as the timestamp of the creation record
//
// Returns an invalid-argument error (see errs.IsInvalidArgument) when any input is
// missing or invalid. All validation failures are joined into a single error.
func NewOrder(id, userID kernel.UUID, items []LineItem, total kernel.Money, at time.Time) (*Order, error) {
	o := &Order{
		status:        Pending,
		version:       1,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setUserID(userID),
		o.setItems(items),
		o.setTotal(total),
		o.setCreatedAt(at),
	); err != nil {
		return nil, err
	}

	o.history = []TransitionRecord{{
		sequence: 0,
		state:    Pending,
		at:       at,
		reason:   CreationReason,
	}}

	return o, nil
}

// RestoreOrder rebuilds an order from a snapshot, typically loaded from persistence.
// Every invariant of the aggregate is checked again.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		status:        s.Status,
		version:       s.Version,
		updatedAt:     s.UpdatedAt,
		history:       slices.Clone(s.History),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setUserID(s.UserID),
		o.setItems(s.Items),
		o.setTotal(s.TotalAmount),
		o.setCreatedAt(s.CreatedAt),
		o.validateHistory(),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed through NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// UserID returns the identifier of the owning user.
func (o *Order) UserID() kernel.UUID {
	return o.userID
}

// Items returns a copy of the line items.
func (o *Order) Items() []LineItem {
	return slices.Clone(o.items)
}

// TotalAmount returns the order total.
func (o *Order) TotalAmount() kernel.Money {
	return o.total
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Version returns the optimistic-concurrency token of the order.
func (o *Order) Version() int64 {
	return o.version
}

// CreatedAt returns the creation time.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns the time of the last appended history record.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// History returns a copy of the transition history, oldest record first.
func (o *Order) History() []TransitionRecord {
	return slices.Clone(o.history)
}

// Snapshot returns a read-only copy of the whole aggregate.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:          o.id,
		UserID:      o.userID,
		Items:       slices.Clone(o.items),
		TotalAmount: o.total,
		Status:      o.status,
		Version:     o.version,
		CreatedAt:   o.createdAt,
		UpdatedAt:   o.updatedAt,
		History:     slices.Clone(o.history),
	}
}

// Transition commits the edge from the current status to `to`.
//
// This is the commit point of a transition: the status is replaced, the version
// is incremented and one record is appended. Nothing changes when the edge is not
// part of the transition table.
//
// Returns:
//   - the appended record on success
//   - *errs.IllegalTransitionError if the edge is not legal
func (o *Order) Transition(to Status, reason string, details map[string]string, at time.Time) (TransitionRecord, error) {
	if err := o.status.CanTransitionTo(to); err != nil {
		return TransitionRecord{}, err
	}

	record := TransitionRecord{
		sequence: len(o.history),
		state:    to,
		previous: o.status,
		at:       at,
		reason:   reason,
		context:  maps.Clone(details),
	}
	o.append(record)
	return record, nil
}

// RecordRollback restores `previous` as the current status after a transition to
// `attempted` was rejected, and appends a rollback record carrying the cause.
// The version is incremented like for any other appended record.
func (o *Order) RecordRollback(
	previous, attempted Status,
	reason string,
	details map[string]string,
	cause error,
	at time.Time,
) (TransitionRecord, error) {
	if cause == nil {
		return TransitionRecord{}, ErrRollbackCauseIsRequired
	}
	if err := errors.Join(previous.Validate(), attempted.Validate()); err != nil {
		return TransitionRecord{}, err
	}
	if previous != o.status {
		return TransitionRecord{}, errs.NewValueIsInvalidErrorWithCause("rollback previous state",
			fmt.Errorf("%s is not the current status %s", previous, o.status))
	}

	record := TransitionRecord{
		sequence:  len(o.history),
		state:     previous,
		previous:  o.status,
		attempted: attempted,
		at:        at,
		reason:    reason,
		context:   maps.Clone(details),
		errorText: cause.Error(),
		rollback:  true,
	}
	o.append(record)
	return record, nil
}

func (o *Order) append(record TransitionRecord) {
	o.history = append(o.history, record)
	o.status = record.state
	o.version++
	o.updatedAt = record.at
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setUserID(userID kernel.UUID) error {
	if err := userID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("user id", err)
	}
	o.userID = userID
	return nil
}

func (o *Order) setItems(items []LineItem) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("items[%d]", i), err)
		}
	}
	o.items = slices.Clone(items)
	return nil
}

func (o *Order) setTotal(total kernel.Money) error {
	if err := total.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("total amount", fmt.Errorf("%s is not greater than 0", total))
	}
	o.total = total
	return nil
}

func (o *Order) setCreatedAt(at time.Time) error {
	if at.IsZero() {
		return errs.NewValueIsRequiredError("created at")
	}
	o.createdAt = at
	if o.updatedAt.IsZero() {
		o.updatedAt = at
	}
	return nil
}

func (o *Order) validateHistory() error {
	if len(o.history) == 0 {
		return errs.NewValueIsRequiredError("history")
	}

	var errList []error
	for i, record := range o.history {
		if record.sequence != i {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
				"history", fmt.Errorf("record %d has sequence %d", i, record.sequence)))
		}
		if err := record.validate(); err != nil {
			errList = append(errList, err)
		}
		if i > 0 {
			errList = append(errList, validateLink(o.history[i-1], record))
		}
	}

	if last := o.history[len(o.history)-1]; last.state != o.status {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"status", fmt.Errorf("%s does not match last record state %s", o.status, last.state)))
	}
	if int64(len(o.history)) != o.version {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"version", fmt.Errorf("%d does not match %d history records", o.version, len(o.history))))
	}

	return errors.Join(errList...)
}

// validateLink checks that record continues from prior: it starts where prior ended and
// is either an edge of the transition table or a rollback that left the status as is.
func validateLink(prior, record TransitionRecord) error {
	if record.previous != prior.state {
		return errs.NewValueIsInvalidErrorWithCause("history", fmt.Errorf(
			"record %d starts from %s but record %d ended in %s",
			record.sequence, record.previous, prior.sequence, prior.state))
	}
	if record.rollback {
		if record.state != record.previous {
			return errs.NewValueIsInvalidErrorWithCause("history", fmt.Errorf(
				"rollback record %d moves %s to %s", record.sequence, record.previous, record.state))
		}
		return nil
	}
	if !IsLegal(record.previous, record.state) {
		return errs.NewValueIsInvalidErrorWithCause("history", fmt.Errorf(
			"record %d: %s -> %s is not a legal transition", record.sequence, record.previous, record.state))
	}
	return nil
}
