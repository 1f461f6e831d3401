// Package http exposes the order lifecycle over a JSON API served by echo.
// Requests are validated against the embedded OpenAPI document before they reach
// the handlers.
package http

import (
	"log/slog"
	"net/http"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server handles the order API and coordinates between HTTP handlers and
// application use cases.
type Server struct {
	// Command handlers
	createOrderHandler     commands.CreateOrderCommandHandler
	transitionOrderHandler commands.TransitionOrderCommandHandler

	// Query handlers
	getOrderStatusHandler  queries.GetOrderStatusQueryHandler
	getOrderHistoryHandler queries.GetOrderHistoryQueryHandler

	logger *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	transitionOrderHandler commands.TransitionOrderCommandHandler,
	getOrderStatusHandler queries.GetOrderStatusQueryHandler,
	getOrderHistoryHandler queries.GetOrderHistoryQueryHandler,
	logger *slog.Logger,
) *Server {
	return &Server{
		createOrderHandler:     createOrderHandler,
		transitionOrderHandler: transitionOrderHandler,
		getOrderStatusHandler:  getOrderStatusHandler,
		getOrderHistoryHandler: getOrderHistoryHandler,
		logger:                 logger.With("component", "http_server"),
	}
}

// EchoRouter is the part of *echo.Echo and *echo.Group used to register routes.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds the order routes to router.
func RegisterHandlers(router EchoRouter, s *Server) {
	router.POST("/api/v1/orders", s.CreateOrder)
	router.GET("/api/v1/orders/:orderId", s.GetOrder)
	router.GET("/api/v1/orders/:orderId/history", s.GetOrderHistory)
	router.POST("/api/v1/orders/:orderId/transitions", s.TransitionOrder)
}

// CreateOrder handles POST /api/v1/orders - creates a new order in Pending.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var newOrder NewOrder
	if err := ctx.Bind(&newOrder); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	userID, err := kernel.UUIDFromString(newOrder.UserID)
	if err != nil {
		return s.errorResponse(ctx, errs.NewValueIsInvalidErrorWithCause("user_id", err))
	}

	items := make([]order.LineItem, 0, len(newOrder.Items))
	for _, item := range newOrder.Items {
		lineItem, itemErr := order.NewLineItem(item.ItemID, item.Quantity)
		if itemErr != nil {
			return s.errorResponse(ctx, itemErr)
		}
		items = append(items, lineItem)
	}

	total, err := kernel.MoneyFromDecimal(newOrder.TotalAmount)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, userID, items, total)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	if err = s.createOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.errorResponse(ctx, err)
	}

	return s.respondWithOrder(ctx, http.StatusCreated, orderID)
}

// GetOrder handles GET /api/v1/orders/:orderId - returns the current state of an order.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	return s.respondWithOrder(ctx, http.StatusOK, orderID)
}

// GetOrderHistory handles GET /api/v1/orders/:orderId/history - returns the transition history.
func (s *Server) GetOrderHistory(ctx echo.Context) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	query, err := queries.NewGetOrderHistoryQuery(orderID)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	records, err := s.getOrderHistoryHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, historyFromQuery(records))
}

// TransitionOrder handles POST /api/v1/orders/:orderId/transitions - requests a status change.
func (s *Server) TransitionOrder(ctx echo.Context) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	var request TransitionRequest
	if err = ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	target, err := order.ParseStatus(request.Status)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, target, request.Reason, request.Context)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	if err = s.transitionOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.errorResponse(ctx, err)
	}

	return s.respondWithOrder(ctx, http.StatusOK, orderID)
}

func (s *Server) respondWithOrder(ctx echo.Context, code int, orderID kernel.UUID) error {
	query, err := queries.NewGetOrderStatusQuery(orderID)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	status, err := s.getOrderStatusHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	return ctx.JSON(code, orderFromQuery(status))
}

func orderIDParam(ctx echo.Context) (kernel.UUID, error) {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderId"))
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("orderId", err)
	}
	return orderID, nil
}
