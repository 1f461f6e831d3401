package queries

import (
	"context"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GetOrderHistoryQueryHandler reads the history of an order from the database.
//
// Example:
//
//	handler := NewGetOrderHistoryQueryHandler(db)
//	query, _ := NewGetOrderHistoryQuery(orderID)
//
//	records, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	for _, r := range records {
//	    fmt.Printf("%d %s -> %s: %s\n", r.Sequence, r.PreviousState, r.State, r.Reason)
//	}
type GetOrderHistoryQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderHistoryQueryHandler creates a handler for order history queries.
func NewGetOrderHistoryQueryHandler(db *gorm.DB) GetOrderHistoryQueryHandler {
	return GetOrderHistoryQueryHandler{db: db}
}

// Handle executes the query. Every stored order has at least its creation record,
// so an empty result means the order does not exist and *errs.ObjectNotFoundError is returned.
func (h GetOrderHistoryQueryHandler) Handle(
	ctx context.Context,
	query GetOrderHistoryQuery,
) ([]GetOrderHistoryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			sequence,
			state,
			previous,
			attempted,
			at,
			reason,
			context,
			error,
			rollback
		FROM order_transitions
		WHERE order_id = ?
		ORDER BY sequence
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]GetOrderHistoryQueryResponse, 0)
	for rows.Next() {
		var (
			record                     GetOrderHistoryQueryResponse
			state, previous, attempted int
			at                         time.Time
			rawContext                 datatypes.JSONMap
		)

		err = rows.Scan(
			&record.Sequence,
			&state,
			&previous,
			&attempted,
			&at,
			&record.Reason,
			&rawContext,
			&record.Error,
			&record.Rollback,
		)
		if err != nil {
			return nil, err
		}

		record.State = order.Status(state).String()
		record.At = at
		if s := order.Status(previous); s != order.Unknown {
			record.PreviousState = s.String()
		}
		if record.Rollback {
			record.AttemptedState = order.Status(attempted).String()
		}
		record.Context = contextStrings(rawContext)

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, errs.NewObjectNotFoundError("order", query.OrderID())
	}

	return records, nil
}

func contextStrings(raw datatypes.JSONMap) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	result := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			result[k] = s
			continue
		}
		result[k] = fmt.Sprint(v)
	}
	return result
}
