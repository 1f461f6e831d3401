package order

import (
	"fmt"
	"slices"
	"strings"

	"orderflow/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	Pending ──> Processing ──> Shipped ──> Delivered
//	   │            │             │            │
//	   │            │             └──> Refunded <┘
//	   ├──> Cancelled <──┤
//	   └──> Failed <─────┘
//
// Cancelled, Failed and Refunded are terminal: no edge leaves them.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status of every order.
	Pending

	// Processing means stock was confirmed and the order is being prepared.
	Processing

	// Shipped means payment was verified and the order left the warehouse.
	Shipped

	// Delivered means the customer received the order.
	Delivered

	// Cancelled is a terminal status for orders stopped before shipping.
	Cancelled

	// Failed is a terminal status for orders that could not be fulfilled.
	Failed

	// Refunded is a terminal status for shipped or delivered orders paid back.
	Refunded
)

// transitionTable is the authoritative set of legal edges. Legality depends on
// membership in this table only, never on runtime context.
//
//nolint:gochecknoglobals // static lookup table
var transitionTable = map[Status][]Status{
	Pending:    {Processing, Cancelled, Failed},
	Processing: {Shipped, Cancelled, Failed},
	Shipped:    {Delivered, Refunded},
	Delivered:  {Refunded},
	Cancelled:  {},
	Failed:     {},
	Refunded:   {},
}

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "Unknown",
		Pending:    "Pending",
		Processing: "Processing",
		Shipped:    "Shipped",
		Delivered:  "Delivered",
		Cancelled:  "Cancelled",
		Failed:     "Failed",
		Refunded:   "Refunded",
	}
}

// Statuses returns every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{Pending, Processing, Shipped, Delivered, Cancelled, Failed, Refunded}
}

// ParseStatus resolves a status name case-insensitively. Unknown is not accepted.
//
// Example:
//
//	target, err := order.ParseStatus("shipped") // order.Shipped
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses() {
		if strings.EqualFold(status.String(), strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%q is not a valid status", s),
	)
}

// Validate checks that the Status is one of the seven lifecycle states.
func (s Status) Validate() error {
	if _, ok := transitionTable[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status, "Unknown" for invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no transition may leave the status.
// Invalid statuses are not terminal; they are simply not part of the table.
func (s Status) IsTerminal() bool {
	targets, ok := transitionTable[s]
	return ok && len(targets) == 0
}

// CanTransitionTo validates the edge s -> to against the transition table.
//
// Returns:
//   - nil if the edge is legal
//   - *errs.IllegalTransitionError otherwise, flagged as terminal when s has no outgoing edges
func (s Status) CanTransitionTo(to Status) error {
	if IsLegal(s, to) {
		return nil
	}
	return errs.NewIllegalTransitionError(s.String(), to.String(), s.IsTerminal())
}

// AllowedTargets returns the statuses reachable from s in one transition.
// The returned slice is a copy and may be modified by the caller.
func AllowedTargets(s Status) []Status {
	return slices.Clone(transitionTable[s])
}

// IsLegal reports whether from -> to is an edge of the transition table.
func IsLegal(from, to Status) bool {
	return slices.Contains(transitionTable[from], to)
}
