package paymentrepo

import (
	"context"
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/kernel"

	"gorm.io/gorm"
)

// ErrPaymentNotVerified is returned when no approved payment exists for an order.
var ErrPaymentNotVerified = errors.New("payment not verified")

// GormPaymentVerifier implements ports.PaymentService on top of the payments table.
type GormPaymentVerifier struct {
	db *gorm.DB
}

// NewGormPaymentVerifier creates a verifier reading from db.
func NewGormPaymentVerifier(db *gorm.DB) *GormPaymentVerifier {
	return &GormPaymentVerifier{db: db}
}

// Verify succeeds when at least one approved payment is recorded for orderID.
func (v *GormPaymentVerifier) Verify(ctx context.Context, orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	var approved int64
	if err := v.db.WithContext(ctx).
		Model(&PaymentDTO{}).
		Where("order_id = ? AND status = ?", orderID.Bytes(), StatusApproved).
		Count(&approved).Error; err != nil {
		return fmt.Errorf("query payments: %w", err)
	}

	if approved == 0 {
		return fmt.Errorf("%w: order %s", ErrPaymentNotVerified, orderID)
	}
	return nil
}
