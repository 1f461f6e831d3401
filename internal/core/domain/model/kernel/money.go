package kernel

import (
	"fmt"
	"math"

	"orderflow/internal/pkg/errs"
)

// ErrMoneyIsNotConstructed indicates that a Money value was not created by NewMoney or MoneyFromDecimal.
var ErrMoneyIsNotConstructed = errs.NewValueIsRequiredError("Money must be created via NewMoney or MoneyFromDecimal")

// Money is a positive amount expressed in minor currency units (cents).
// Integer storage keeps totals exact across persistence and transport.
type Money struct {
	cents int64
}

// NewMoney creates a Money value from minor units. The amount must be greater than zero.
func NewMoney(cents int64) (Money, error) {
	if cents <= 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause(
			"total amount",
			fmt.Errorf("%d is not greater than 0", cents),
		)
	}
	return Money{cents: cents}, nil
}

// MoneyFromDecimal converts a decimal amount such as 100.00 to Money,
// rounding half away from zero to the nearest cent.
func MoneyFromDecimal(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, errs.NewValueIsInvalidErrorWithCause(
			"total amount",
			fmt.Errorf("%v is not a finite number", amount),
		)
	}
	return NewMoney(int64(math.Round(amount * 100)))
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return m.cents
}

// Decimal returns the amount in major units.
func (m Money) Decimal() float64 {
	return float64(m.cents) / 100
}

// String renders the amount with two decimals, e.g. "100.00".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.cents/100, m.cents%100)
}

// IsEqual reports whether both amounts are the same.
func (m Money) IsEqual(other Money) bool {
	return m.cents == other.cents
}

// Validate returns ErrMoneyIsNotConstructed for the zero value.
func (m Money) Validate() error {
	if m.cents <= 0 {
		return ErrMoneyIsNotConstructed
	}
	return nil
}
