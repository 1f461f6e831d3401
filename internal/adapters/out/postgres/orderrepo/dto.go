// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain snapshots and database representations.
package orderrepo

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The status and creation time share an index used by the pending order expiry job.
type OrderDTO struct {
	ID         uuid.UUID             `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID             `gorm:"type:uuid;index"`
	TotalCents int64                 `gorm:"not null"`
	Status     int                   `gorm:"not null;index:idx_orders_status_created_at,priority:1"`
	Version    int64                 `gorm:"not null"`
	CreatedAt  time.Time             `gorm:"autoCreateTime:false;index:idx_orders_status_created_at,priority:2"`
	UpdatedAt  time.Time             `gorm:"autoUpdateTime:false"`
	Items      []LineItemDTO         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History    []TransitionRecordDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// LineItemDTO stores one line item. Position keeps the order of items stable.
type LineItemDTO struct {
	OrderID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position int       `gorm:"primaryKey;autoIncrement:false"`
	ItemID   int64     `gorm:"not null"`
	Quantity int       `gorm:"not null"`
}

// TableName specifies the database table name for line items.
func (LineItemDTO) TableName() string {
	return "order_line_items"
}

// TransitionRecordDTO stores one history record. Rows are only ever inserted.
type TransitionRecordDTO struct {
	OrderID   uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Sequence  int               `gorm:"primaryKey;autoIncrement:false"`
	State     int               `gorm:"not null"`
	Previous  int               `gorm:"not null"`
	Attempted int               `gorm:"not null"`
	At        time.Time         `gorm:"not null"`
	Reason    string
	Context   datatypes.JSONMap `gorm:"type:jsonb"`
	Error     string
	Rollback  bool `gorm:"not null"`
}

// TableName specifies the database table name for history records.
func (TransitionRecordDTO) TableName() string {
	return "order_transitions"
}

// fromDomain converts an order snapshot to its database representation,
// including every line item and history record.
func fromDomain(s order.Snapshot) OrderDTO {
	id := s.ID.Bytes()

	items := make([]LineItemDTO, 0, len(s.Items))
	for i, item := range s.Items {
		items = append(items, LineItemDTO{
			OrderID:  id,
			Position: i,
			ItemID:   item.ItemID(),
			Quantity: item.Quantity(),
		})
	}

	return OrderDTO{
		ID:         id,
		UserID:     s.UserID.Bytes(),
		TotalCents: s.TotalAmount.Cents(),
		Status:     int(s.Status),
		Version:    s.Version,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		Items:      items,
		History:    recordsFromDomain(id, s.History),
	}
}

func recordsFromDomain(orderID uuid.UUID, records []order.TransitionRecord) []TransitionRecordDTO {
	dtos := make([]TransitionRecordDTO, 0, len(records))
	for _, record := range records {
		data := record.Data()

		var ctx datatypes.JSONMap
		if len(data.Context) > 0 {
			ctx = make(datatypes.JSONMap, len(data.Context))
			for k, v := range data.Context {
				ctx[k] = v
			}
		}

		dtos = append(dtos, TransitionRecordDTO{
			OrderID:   orderID,
			Sequence:  data.Sequence,
			State:     int(data.State),
			Previous:  int(data.Previous),
			Attempted: int(data.Attempted),
			At:        data.At,
			Reason:    data.Reason,
			Context:   ctx,
			Error:     data.ErrorText,
			Rollback:  data.Rollback,
		})
	}
	return dtos
}

// toDomain converts a database DTO with preloaded items and history to an order
// aggregate using RestoreOrder, which checks every aggregate invariant again.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	userID, err := kernel.UUIDFromBytes(dto.UserID[:])
	if err != nil {
		return nil, err
	}
	total, err := kernel.NewMoney(dto.TotalCents)
	if err != nil {
		return nil, err
	}

	items := make([]order.LineItem, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, itemErr := order.NewLineItem(itemDTO.ItemID, itemDTO.Quantity)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	history := make([]order.TransitionRecord, 0, len(dto.History))
	var errList []error
	for _, recordDTO := range dto.History {
		record, recordErr := order.RestoreTransitionRecord(order.TransitionRecordData{
			Sequence:  recordDTO.Sequence,
			State:     order.Status(recordDTO.State),
			Previous:  order.Status(recordDTO.Previous),
			Attempted: order.Status(recordDTO.Attempted),
			At:        recordDTO.At,
			Reason:    recordDTO.Reason,
			Context:   contextToDomain(recordDTO.Context),
			ErrorText: recordDTO.Error,
			Rollback:  recordDTO.Rollback,
		})
		if recordErr != nil {
			errList = append(errList, fmt.Errorf("history record %d: %w", recordDTO.Sequence, recordErr))
			continue
		}
		history = append(history, record)
	}
	if err = errors.Join(errList...); err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.Snapshot{
		ID:          id,
		UserID:      userID,
		Items:       items,
		TotalAmount: total,
		Status:      order.Status(dto.Status),
		Version:     dto.Version,
		CreatedAt:   dto.CreatedAt,
		UpdatedAt:   dto.UpdatedAt,
		History:     history,
	})
}

func contextToDomain(m datatypes.JSONMap) map[string]string {
	if len(m) == 0 {
		return nil
	}
	ctx := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			ctx[k] = s
			continue
		}
		ctx[k] = fmt.Sprint(v)
	}
	return ctx
}
