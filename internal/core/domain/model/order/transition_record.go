package order

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"orderflow/internal/pkg/errs"
)

// TransitionRecord is one immutable entry of an order's history.
//
// Three kinds of records exist:
//   - the creation record (sequence 0, no previous state)
//   - a commit record, written when a transition is applied
//   - a rollback record, written when a pre-transition hook rejects a transition;
//     its state equals the previous state and it carries the attempted state and error text
//
// Records never point back at their order; the order owns them by position.
type TransitionRecord struct {
	sequence  int
	state     Status
	previous  Status
	attempted Status
	at        time.Time
	reason    string
	context   map[string]string
	errorText string
	rollback  bool
}

// TransitionRecordData is the flat form of a TransitionRecord used by persistence adapters.
// Previous is Unknown for the creation record; Attempted is Unknown unless Rollback is set.
type TransitionRecordData struct {
	Sequence  int
	State     Status
	Previous  Status
	Attempted Status
	At        time.Time
	Reason    string
	Context   map[string]string
	ErrorText string
	Rollback  bool
}

// RestoreTransitionRecord rebuilds a record from persisted data after validating it.
func RestoreTransitionRecord(data TransitionRecordData) (TransitionRecord, error) {
	record := TransitionRecord{
		sequence:  data.Sequence,
		state:     data.State,
		previous:  data.Previous,
		attempted: data.Attempted,
		at:        data.At,
		reason:    data.Reason,
		context:   maps.Clone(data.Context),
		errorText: data.ErrorText,
		rollback:  data.Rollback,
	}
	if err := record.validate(); err != nil {
		return TransitionRecord{}, err
	}
	return record, nil
}

// Sequence returns the position of the record in the history, starting at 0.
func (r TransitionRecord) Sequence() int {
	return r.sequence
}

// State returns the order state after the record was written.
func (r TransitionRecord) State() Status {
	return r.state
}

// PreviousState returns the state before the record and false for the creation record.
func (r TransitionRecord) PreviousState() (Status, bool) {
	return r.previous, r.previous != Unknown
}

// AttemptedState returns the rejected target of a rollback record and false for other records.
func (r TransitionRecord) AttemptedState() (Status, bool) {
	return r.attempted, r.rollback
}

// At returns when the record was written.
func (r TransitionRecord) At() time.Time {
	return r.at
}

// Reason returns the human-readable reason supplied with the transition.
func (r TransitionRecord) Reason() string {
	return r.reason
}

// Context returns a copy of the free-form context supplied with the transition.
func (r TransitionRecord) Context() map[string]string {
	return maps.Clone(r.context)
}

// Error returns the error text of a rollback record, empty otherwise.
func (r TransitionRecord) Error() string {
	return r.errorText
}

// IsRollback reports whether the record was written by a rolled back transition.
func (r TransitionRecord) IsRollback() bool {
	return r.rollback
}

// Data returns the flat form of the record.
func (r TransitionRecord) Data() TransitionRecordData {
	return TransitionRecordData{
		Sequence:  r.sequence,
		State:     r.state,
		Previous:  r.previous,
		Attempted: r.attempted,
		At:        r.at,
		Reason:    r.reason,
		Context:   maps.Clone(r.context),
		ErrorText: r.errorText,
		Rollback:  r.rollback,
	}
}

func (r TransitionRecord) validate() error {
	var errList []error

	if r.sequence < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"record sequence", fmt.Errorf("%d is negative", r.sequence)))
	}
	if err := r.state.Validate(); err != nil {
		errList = append(errList, err)
	}
	if r.sequence == 0 && (r.previous != Unknown || r.state != Pending) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"creation record", fmt.Errorf("must be %s without previous state", Pending)))
	}
	if r.sequence > 0 && r.previous.Validate() != nil {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"record previous state", fmt.Errorf("record %d has no previous state", r.sequence)))
	}
	if r.rollback && (r.errorText == "" || r.attempted.Validate() != nil) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"rollback record", errors.New("requires attempted state and error text")))
	}
	if r.at.IsZero() {
		errList = append(errList, errs.NewValueIsRequiredError("record timestamp"))
	}

	return errors.Join(errList...)
}
