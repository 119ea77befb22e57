package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"festpass/internal/services"
	"festpass/internal/status"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type WebhookHandler struct {
	app          *pocketbase.PocketBase
	orderService *services.OrderService
}

func NewWebhookHandler(app *pocketbase.PocketBase, orderService *services.OrderService) *WebhookHandler {
	return &WebhookHandler{
		app:          app,
		orderService: orderService,
	}
}

// PaymentWebhook receives gateway notifications. The signature is checked
// over the raw body before any parsing; once signature and parsing pass,
// the response is always 200 {ok:true} (no-op event types and idempotent
// replays included) so the gateway stops retrying.
func (h *WebhookHandler) PaymentWebhook(e *core.RequestEvent) error {
	timestamp := e.Request.Header.Get("x-webhook-timestamp")
	signature := e.Request.Header.Get("x-webhook-signature")
	if timestamp == "" || signature == "" {
		return apis.NewBadRequestError("Missing webhook headers", nil)
	}

	rawBody, err := io.ReadAll(e.Request.Body)
	if err != nil || len(rawBody) == 0 {
		return apis.NewBadRequestError("Missing webhook body", nil)
	}

	ctx := e.Request.Context()
	err = h.orderService.HandleWebhook(ctx, timestamp, signature, rawBody)
	switch {
	case err == nil:
		return e.JSON(http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, status.ErrInvalidSignature):
		// No detail beyond the rejection; signature failures get nothing
		// to probe against.
		return apis.NewUnauthorizedError("Invalid signature", nil)
	case errors.Is(err, status.ErrMalformedWebhook):
		return apis.NewBadRequestError("Invalid webhook payload", nil)
	case errors.Is(err, status.ErrPaymentNotFound):
		slog.Warn("webhook for unknown order", "error", err)
		return apis.NewNotFoundError("Payment not found", nil)
	default:
		// Internal settle failure; a 5xx makes the gateway redeliver and
		// settlement is idempotent, so the retry is safe.
		slog.Error("h.orderService.HandleWebhook()", "error", err)
		return apis.NewInternalServerError("internal error", err)
	}
}
