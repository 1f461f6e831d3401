package order

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
)

// Snapshot is a read-only copy of an Order. It is what the state machine hands to
// callers and hooks, and what persistence adapters store and load.
type Snapshot struct {
	ID          kernel.UUID
	UserID      kernel.UUID
	Items       []LineItem
	TotalAmount kernel.Money
	Status      Status
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	History     []TransitionRecord
}

// LastRecord returns the most recent history record and false if the history is empty.
func (s Snapshot) LastRecord() (TransitionRecord, bool) {
	if len(s.History) == 0 {
		return TransitionRecord{}, false
	}
	return s.History[len(s.History)-1], true
}

// DeliveredAt returns the time of the committed transition into Delivered.
// The second result is false when the order was never delivered.
func (s Snapshot) DeliveredAt() (time.Time, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		record := s.History[i]
		if !record.IsRollback() && record.State() == Delivered {
			return record.At(), true
		}
	}
	return time.Time{}, false
}

// Quantities sums the ordered quantity per item id.
func (s Snapshot) Quantities() map[int64]int {
	quantities := make(map[int64]int, len(s.Items))
	for _, item := range s.Items {
		quantities[item.ItemID()] += item.Quantity()
	}
	return quantities
}
