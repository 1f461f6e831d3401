package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", errs.NewValueIsRequiredError("items"), http.StatusBadRequest},
		{"not found", errs.NewObjectNotFoundError("order", "42"), http.StatusNotFound},
		{"illegal transition", errs.NewIllegalTransitionError("Pending", "Delivered", false), http.StatusConflict},
		{"concurrent transition", errs.NewConcurrentTransitionError("42"), http.StatusConflict},
		{"version conflict", errs.NewVersionConflictError("42", 3), http.StatusConflict},
		{"precondition failed", errs.NewPreconditionFailedError("payment_verification", errors.New("unpaid")),
			http.StatusUnprocessableEntity},
		{"wrapped not found", fmt.Errorf("load: %w", errs.NewObjectNotFoundError("order", "42")), http.StatusNotFound},
		{"precondition persisted with conflict", errors.Join(
			errs.NewPreconditionFailedError("inventory_availability", errors.New("out of stock")),
			errs.NewVersionConflictError("42", 1),
		), http.StatusConflict},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusCode(tt.err))
		})
	}
}
