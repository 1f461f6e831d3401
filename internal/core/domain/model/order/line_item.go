package order

import (
	"errors"
	"fmt"

	"orderflow/internal/pkg/errs"
)

// LineItem is a value object describing one ordered item and its quantity.
type LineItem struct {
	itemID   int64
	quantity int
}

// NewLineItem creates a LineItem. Both the item id and the quantity must be positive.
func NewLineItem(itemID int64, quantity int) (LineItem, error) {
	if err := errors.Join(validateItemID(itemID), validateQuantity(quantity)); err != nil {
		return LineItem{}, err
	}
	return LineItem{itemID: itemID, quantity: quantity}, nil
}

// ItemID returns the catalogue identifier of the item.
func (i LineItem) ItemID() int64 {
	return i.itemID
}

// Quantity returns how many units were ordered.
func (i LineItem) Quantity() int {
	return i.quantity
}

// Validate reports whether the LineItem was created through NewLineItem.
func (i LineItem) Validate() error {
	return errors.Join(validateItemID(i.itemID), validateQuantity(i.quantity))
}

func validateItemID(itemID int64) error {
	if itemID <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("item id", fmt.Errorf("%d is not greater than 0", itemID))
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	return nil
}
