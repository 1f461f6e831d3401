// Package queries contains read-only operations of the CQRS architecture.
// Query handlers read straight from the database and return flat response types
// instead of domain aggregates.
package queries

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/guard"
)

var ErrGetOrderStatusQueryIsNotConstructed = errors.New(
	"GetOrderStatusQuery must be created via NewGetOrderStatusQuery constructor",
)

// GetOrderStatusQuery retrieves the current state of one order.
//
// Example:
//
//	query, err := NewGetOrderStatusQuery(orderID)
//	if err != nil {
//	    return err
//	}
//	handler := NewGetOrderStatusQueryHandler(db)
//
//	status, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get order: %w", err)
//	}
//	fmt.Printf("Order %s is %s (version %d)\n", status.ID, status.Status, status.Version)
type GetOrderStatusQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderStatusQuery creates a query for the order with the given identifier.
func NewGetOrderStatusQuery(orderID kernel.UUID) (GetOrderStatusQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderStatusQuery{}, err
	}
	return GetOrderStatusQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetOrderStatusQueryIsNotConstructed if validation fails.
func (q GetOrderStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderStatusQueryIsNotConstructed)
}

// OrderID returns the identifier of the requested order.
func (q GetOrderStatusQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetOrderStatusQueryResponse is the current state of an order.
// AllowedTransitions lists the statuses the order may move to next.
type GetOrderStatusQueryResponse struct {
	ID                 kernel.UUID
	UserID             kernel.UUID
	Status             string
	Version            int64
	TotalAmount        kernel.Money
	Items              []LineItemResponse
	AllowedTransitions []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LineItemResponse is one ordered item.
type LineItemResponse struct {
	ItemID   int64
	Quantity int
}
