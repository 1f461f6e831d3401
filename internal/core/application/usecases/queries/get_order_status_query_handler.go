package queries

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderStatusQueryHandler reads the current state of an order from the database.
type GetOrderStatusQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderStatusQueryHandler creates a handler for order status queries.
// Requires a GORM database connection for query execution.
func NewGetOrderStatusQueryHandler(db *gorm.DB) GetOrderStatusQueryHandler {
	return GetOrderStatusQueryHandler{db: db}
}

// Handle executes the query.
// Returns *errs.ObjectNotFoundError if the order does not exist.
func (h GetOrderStatusQueryHandler) Handle(
	ctx context.Context,
	query GetOrderStatusQuery,
) (GetOrderStatusQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderStatusQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)

	var row struct {
		UserID     uuid.UUID
		TotalCents int64
		Status     int
		Version    int64
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
	err := db.Raw(`
		SELECT
			user_id,
			total_cents,
			status,
			version,
			created_at,
			updated_at
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GetOrderStatusQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID())
	}
	if err != nil {
		return GetOrderStatusQueryResponse{}, err
	}

	userID, err := kernel.UUIDFromBytes(row.UserID[:])
	if err != nil {
		return GetOrderStatusQueryResponse{}, err
	}
	total, err := kernel.NewMoney(row.TotalCents)
	if err != nil {
		return GetOrderStatusQueryResponse{}, err
	}

	items := make([]LineItemResponse, 0)
	err = db.Raw(`
		SELECT
			item_id,
			quantity
		FROM order_line_items
		WHERE order_id = ?
		ORDER BY position
	`, query.OrderID().Bytes()).Scan(&items).Error
	if err != nil {
		return GetOrderStatusQueryResponse{}, err
	}

	status := order.Status(row.Status)
	allowed := make([]string, 0)
	for _, target := range order.AllowedTargets(status) {
		allowed = append(allowed, target.String())
	}

	return GetOrderStatusQueryResponse{
		ID:                 query.OrderID(),
		UserID:             userID,
		Status:             status.String(),
		Version:            row.Version,
		TotalAmount:        total,
		Items:              items,
		AllowedTransitions: allowed,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}, nil
}
