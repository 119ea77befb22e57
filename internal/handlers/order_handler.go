package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"festpass/internal/services"
	"festpass/internal/status"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type OrderHandler struct {
	app          *pocketbase.PocketBase
	orderService *services.OrderService
}

func NewOrderHandler(app *pocketbase.PocketBase, orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		app:          app,
		orderService: orderService,
	}
}

// CreateOrder creates a gateway order for a pass purchase. The amount is
// validated server-side against the canonical price table and the caller
// can only buy for themselves.
func (h *OrderHandler) CreateOrder(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	var req services.CreateOrderRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if req.PassType == "" || req.Customer.UID == "" || req.Customer.Phone == "" {
		return apis.NewBadRequestError("pass_type and customer details are required", nil)
	}

	if req.Customer.UID != auth.Id {
		return apis.NewForbiddenError("Cannot create an order for another user", nil)
	}

	ctx := e.Request.Context()
	reply, err := h.orderService.CreateOrder(ctx, &req)
	switch {
	case err == nil:
		return e.JSON(http.StatusOK, reply)
	case errors.Is(err, status.ErrUnknownPassType), errors.Is(err, status.ErrPriceMismatch):
		return apis.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, status.ErrGateway):
		slog.Error("h.orderService.CreateOrder()", "user_id", auth.Id, "error", err)
		return apis.NewApiError(http.StatusBadGateway, "Payment gateway error", nil)
	default:
		slog.Error("h.orderService.CreateOrder()", "user_id", auth.Id, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}
}

// VerifyOrder is the client-redirect fallback: the payer lands back from
// checkout and asks us to poll the gateway in case the webhook has not
// arrived yet. Idempotent, owner-only.
func (h *OrderHandler) VerifyOrder(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	orderID := e.Request.PathValue("orderId")
	ctx := e.Request.Context()

	payment, err := h.orderService.FindPayment(ctx, orderID)
	if err != nil {
		return apis.NewNotFoundError("Payment not found", nil)
	}

	if payment.GetString("user_id") != auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	payment, err = h.orderService.VerifyOrder(ctx, orderID)
	switch {
	case err == nil:
		return e.JSON(http.StatusOK, map[string]any{
			"order_id": orderID,
			"status":   payment.GetString("status"),
		})
	case errors.Is(err, status.ErrPaymentPending):
		return e.JSON(http.StatusOK, map[string]any{
			"order_id": orderID,
			"status":   "pending",
		})
	case errors.Is(err, status.ErrGateway):
		slog.Error("h.orderService.VerifyOrder()", "order_id", orderID, "error", err)
		return apis.NewApiError(http.StatusBadGateway, "Payment gateway error", nil)
	default:
		slog.Error("h.orderService.VerifyOrder()", "order_id", orderID, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}
}
