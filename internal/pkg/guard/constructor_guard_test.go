package guard_test

import (
	"errors"
	"testing"

	"orderflow/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorGuard_Validate(t *testing.T) {
	t.Run("properly_constructed_guard_returns_nil", func(t *testing.T) {
		// Given
		g := guard.NewConstructorGuard()

		// When
		err := g.Validate(errors.New("not constructed"))

		// Then
		require.NoError(t, err)
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero_value_guard_returns_custom_error", func(t *testing.T) {
		// Given
		var g guard.ConstructorGuard
		expectedError := errors.New("command not constructed")

		// When
		err := g.Validate(expectedError)

		// Then
		require.Error(t, err)
		assert.Equal(t, expectedError, err)
	})

	t.Run("zero_value_guard_returns_default_error_when_nil", func(t *testing.T) {
		// Given
		var g guard.ConstructorGuard

		// When
		err := g.Validate(nil)

		// Then
		require.Error(t, err)
		assert.Equal(t, guard.ErrDefaultConstructorGuard, err)
		assert.Equal(t, "object must be created via its constructor", err.Error())
	})
}

// TestConstructorGuardUsageExample shows the guard embedded in a command-like value.
func TestConstructorGuardUsageExample(t *testing.T) {
	errReasonNotConstructed := errors.New("Reason must be created via newReason")

	type Reason struct {
		text  string
		guard guard.ConstructorGuard
	}

	newReason := func(text string) (Reason, error) {
		if text == "" {
			return Reason{}, errors.New("reason is required")
		}
		return Reason{text: text, guard: guard.NewConstructorGuard()}, nil
	}

	t.Run("valid_construction_through_constructor", func(t *testing.T) {
		reason, err := newReason("customer request")

		require.NoError(t, err)
		require.NoError(t, reason.guard.Validate(errReasonNotConstructed))
		assert.Equal(t, "customer request", reason.text)
	})

	t.Run("failed_construction_returns_zero_value", func(t *testing.T) {
		reason, err := newReason("")

		require.Error(t, err)
		assert.Equal(t, errReasonNotConstructed, reason.guard.Validate(errReasonNotConstructed))
	})

	t.Run("guard_survives_copy_by_value", func(t *testing.T) {
		reason, _ := newReason("copy")
		reasonCopy := reason

		require.NoError(t, reasonCopy.guard.Validate(errReasonNotConstructed))
	})
}

func TestConstructorGuardConcurrency(t *testing.T) {
	g := guard.NewConstructorGuard()
	validationError := errors.New("not constructed")

	done := make(chan bool)
	for range 50 {
		go func() {
			for range 100 {
				assert.NoError(t, g.Validate(validationError))
			}
			done <- true
		}()
	}

	for range 50 {
		<-done
	}
}
