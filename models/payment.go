package models

import (
	"time"
)

type Payment struct {
	ID             string    `json:"payment_id"`
	UserID         string    `json:"user_id"`
	PassType       string    `json:"pass_type"`
	Amount         int       `json:"amount"`
	GatewayOrderID string    `json:"gateway_order_id"`
	Status         string    `json:"status"` // pending, success, failed
	Customer       Customer  `json:"customer"`
	TeamID         string    `json:"team_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Customer is the identity snapshot sent to the payment gateway and kept
// on the payment record.
type Customer struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Payment lifecycle states. A payment moves pending -> success|failed
// exactly once; webhook redelivery must observe the settled state and
// apply no side effects.
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)
