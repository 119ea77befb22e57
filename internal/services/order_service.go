package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"festpass/internal/notify"
	"festpass/internal/services/gateway/cashfree"
	"festpass/internal/status"
	"festpass/models"
	"festpass/monitoring"
	"festpass/utils"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// Gateway is the slice of the payment gateway the order flow depends on.
type Gateway interface {
	CreateOrder(ctx context.Context, form *cashfree.OrderRequest) (*cashfree.Order, error)
	OrderStatus(ctx context.Context, orderID string) (*cashfree.Order, error)
}

type CreateOrderRequest struct {
	PassType string          `json:"pass_type"`
	Amount   int             `json:"amount"`
	TeamID   string          `json:"team_id,omitempty"`
	Customer models.Customer `json:"customer"`
}

type CreateOrderReply struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
}

// OrderService drives the purchase flow: price-checked order creation
// against the gateway, webhook settlement, and the client-redirect
// polling fallback. Settlement is idempotent; a payment transitions out
// of pending exactly once.
type OrderService struct {
	app      core.App
	gateway  Gateway
	breaker  *utils.CircuitBreaker
	passes   *PassService
	notifier *notify.Notifier
	monitor  *monitoring.Monitor

	webhookSecret string
}

func NewOrderService(app core.App, gateway Gateway, passes *PassService, notifier *notify.Notifier, monitor *monitoring.Monitor, webhookSecret string) *OrderService {
	return &OrderService{
		app:      app,
		gateway:  gateway,
		passes:   passes,
		notifier: notifier,
		monitor:  monitor,
		breaker: utils.NewCircuitBreaker(utils.Settings{
			Name: "cashfree",
		}),
		webhookSecret: webhookSecret,
	}
}

// ValidateAmount checks the requested amount against the canonical price
// table. This is a server-side integrity check; it runs before any
// gateway call so a tampered client never reaches the gateway.
func ValidateAmount(passType string, amount int) error {
	price, ok := models.PriceFor(passType)
	if !ok {
		return status.ErrUnknownPassType
	}
	if amount != price {
		return status.ErrPriceMismatch
	}
	return nil
}

// CreateOrder creates a gateway order and records the pending payment
// keyed by the gateway order id.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderReply, error) {
	if err := ValidateAmount(req.PassType, req.Amount); err != nil {
		return nil, err
	}

	code, err := utils.GenerateCode(6)
	if err != nil {
		return nil, fmt.Errorf("createOrder: generate code: %w", err)
	}
	orderID := fmt.Sprintf("order_%d_%s", time.Now().Unix(), code)

	var order *cashfree.Order
	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		start := time.Now()
		order, err = s.gateway.CreateOrder(ctx, &cashfree.OrderRequest{
			OrderID:       orderID,
			OrderAmount:   decimal.NewFromInt(int64(req.Amount)),
			OrderCurrency: "INR",
			OrderNote:     req.PassType,
			CustomerDetails: cashfree.CustomerDetails{
				CustomerID:    req.Customer.UID,
				CustomerName:  req.Customer.Name,
				CustomerEmail: req.Customer.Email,
				CustomerPhone: req.Customer.Phone,
			},
		})
		s.monitor.TrackGatewayRequest("create_order", time.Since(start))
		return err
	})
	if err != nil {
		s.monitor.TrackOrder(req.PassType, "gateway_error")
		return nil, fmt.Errorf("%w: %v", status.ErrGateway, err)
	}

	collection, err := s.app.FindCollectionByNameOrId("payments")
	if err != nil {
		return nil, fmt.Errorf("createOrder: find collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("user_id", req.Customer.UID)
	record.Set("pass_type", req.PassType)
	record.Set("amount", req.Amount)
	record.Set("gateway_order_id", order.OrderID)
	record.Set("status", models.PaymentStatusPending)
	record.Set("customer_name", req.Customer.Name)
	record.Set("customer_email", req.Customer.Email)
	record.Set("customer_phone", req.Customer.Phone)
	if req.TeamID != "" {
		record.Set("team_id", req.TeamID)
	}

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("createOrder: save payment: %w", err)
	}

	s.monitor.TrackOrder(req.PassType, "created")

	return &CreateOrderReply{
		OrderID:          order.OrderID,
		PaymentSessionID: order.PaymentSessionID,
	}, nil
}

// HandleWebhook verifies and applies one gateway notification. Only the
// payment-success event transitions state; every other event type is a
// no-op so the gateway stops redelivering it.
func (s *OrderService) HandleWebhook(ctx context.Context, timestamp, signature string, rawBody []byte) error {
	if !cashfree.VerifyWebhookSignature(timestamp, rawBody, signature, s.webhookSecret) {
		s.monitor.TrackWebhook("unknown", "bad_signature")
		return status.ErrInvalidSignature
	}

	event, err := cashfree.ParseWebhook(rawBody)
	if err != nil {
		s.monitor.TrackWebhook("unknown", "malformed")
		return fmt.Errorf("%w: %v", status.ErrMalformedWebhook, err)
	}

	if event.Type != cashfree.EventPaymentSuccess {
		s.monitor.TrackWebhook(event.Type, "ignored")
		return nil
	}

	if err := s.settle(ctx, event.Data.Order.OrderID, models.PaymentStatusSuccess); err != nil {
		s.monitor.TrackWebhook(event.Type, "error")
		return err
	}

	s.monitor.TrackWebhook(event.Type, "applied")
	return nil
}

// VerifyOrder is the client-redirect fallback: poll the gateway directly
// and settle if the order reached a terminal status there.
func (s *OrderService) VerifyOrder(ctx context.Context, gatewayOrderID string) (*core.Record, error) {
	var order *cashfree.Order
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		start := time.Now()
		var gerr error
		order, gerr = s.gateway.OrderStatus(ctx, gatewayOrderID)
		s.monitor.TrackGatewayRequest("order_status", time.Since(start))
		return gerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrGateway, err)
	}

	switch order.OrderStatus {
	case cashfree.OrderStatusPaid:
		if err := s.settle(ctx, gatewayOrderID, models.PaymentStatusSuccess); err != nil {
			return nil, err
		}
	case cashfree.OrderStatusExpired, cashfree.OrderStatusTerminated:
		// Terminal on the gateway side; settle as failed and report the
		// settled status so the client stops polling a dead order.
		if err := s.settle(ctx, gatewayOrderID, models.PaymentStatusFailed); err != nil {
			return nil, err
		}
	default:
		return nil, status.ErrPaymentPending
	}

	return s.findPayment(gatewayOrderID)
}

// FindPayment fetches a payment record by its gateway order id.
func (s *OrderService) FindPayment(_ context.Context, gatewayOrderID string) (*core.Record, error) {
	return s.findPayment(gatewayOrderID)
}

func (s *OrderService) findPayment(gatewayOrderID string) (*core.Record, error) {
	record := &core.Record{}
	err := s.app.RecordQuery("payments").
		AndWhere(dbx.HashExp{"gateway_order_id": gatewayOrderID}).
		Limit(1).
		One(record)
	if err != nil {
		return nil, status.ErrPaymentNotFound
	}
	return record, nil
}

// settle applies a payment outcome exactly once; the transition out of
// pending commits before any pass work. Issuance runs for every settle
// that observes a successful payment, not just the one that transitioned
// it: IssuePass is idempotent, so a redelivery repairs a success whose
// pass failed to issue without ever double-issuing.
func (s *OrderService) settle(ctx context.Context, gatewayOrderID, outcome string) error {
	var payment *core.Record
	var transitioned bool

	err := s.app.RunInTransaction(func(txApp core.App) error {
		record := &core.Record{}
		err := txApp.RecordQuery("payments").
			AndWhere(dbx.HashExp{"gateway_order_id": gatewayOrderID}).
			Limit(1).
			One(record)
		if err != nil {
			return status.ErrPaymentNotFound
		}

		if record.GetString("status") != models.PaymentStatusPending {
			payment = record
			return nil
		}

		record.Set("status", outcome)
		if err := txApp.SaveWithContext(ctx, record); err != nil {
			return fmt.Errorf("settle: save payment: %w", err)
		}

		payment = record
		transitioned = true
		return nil
	})
	if err != nil {
		return err
	}

	if payment.GetString("status") != models.PaymentStatusSuccess {
		return nil
	}

	pass, err := s.passes.IssuePass(ctx, payment)
	if err != nil {
		return fmt.Errorf("settle: %w", err)
	}

	if !transitioned {
		return nil
	}

	slog.Info("payment settled, pass issued",
		"gateway_order_id", gatewayOrderID,
		"pass_id", pass.Id,
		"pass_type", pass.GetString("pass_type"))

	s.notifier.PaymentSucceeded(pass.GetString("user_id"), pass.Id, pass.GetString("pass_type"))

	return nil
}
