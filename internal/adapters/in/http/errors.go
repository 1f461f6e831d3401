package http

import (
	"errors"
	"net/http"

	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusCode maps an application error to its HTTP status.
func statusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrVersionConflict),
		errors.Is(err, errs.ErrConcurrentTransitionInProgress),
		errors.Is(err, errs.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, errs.ErrPreconditionFailed):
		return http.StatusUnprocessableEntity
	case errs.IsInvalidArgument(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse writes err as an Error body. Messages of unexpected errors are not
// exposed to the client.
func (s *Server) errorResponse(ctx echo.Context, err error) error {
	code := statusCode(err)
	body := Error{Code: code, Message: err.Error()}

	var precondition *errs.PreconditionFailedError
	if errors.As(err, &precondition) {
		body.Hook = precondition.Hook
	}

	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "Request failed",
			"method", ctx.Request().Method,
			"path", ctx.Path(),
			"error", err,
		)
		body.Message = http.StatusText(code)
	}

	return ctx.JSON(code, body)
}
