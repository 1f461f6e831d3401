// Package paymentrepo verifies order payments against the payments table.
package paymentrepo

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses stored in the status column.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDeclined = "declined"
)

// PaymentDTO is one payment attempt recorded by the payment provider integration.
type PaymentDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;index"`
	AmountCents int64     `gorm:"not null"`
	Status      string    `gorm:"size:16;not null"`
	CreatedAt   time.Time
}

// TableName specifies the database table name for payments.
func (PaymentDTO) TableName() string {
	return "payments"
}
