// Package errs provides standardized error types for the order lifecycle service.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes two groups of error types:
//   - Argument errors: ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError
//     (all of them are reported by IsInvalidArgument)
//   - Lifecycle errors: IllegalTransitionError, ConcurrentTransitionError,
//     PreconditionFailedError, VersionConflictError and ObjectNotFoundError
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrIllegalTransition)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause where a cause makes sense
//   - Error() method for formatting the error message
//   - Unwrap() method so errors.Is matches the sentinel
package errs
