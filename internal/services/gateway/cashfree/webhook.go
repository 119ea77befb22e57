package cashfree

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EventPaymentSuccess is the only webhook event type that drives a state
// transition; every other type is acknowledged without action so the
// gateway does not retry it forever.
const EventPaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"

// WebhookEvent is the envelope Cashfree posts to the webhook endpoint.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			CfPaymentID   json.Number `json:"cf_payment_id"`
			PaymentStatus string      `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

// VerifyWebhookSignature recomputes base64(HMAC-SHA256(secret,
// timestamp+rawBody)) and compares it to the signature header in
// constant time.
func VerifyWebhookSignature(timestamp string, rawBody []byte, signature, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp))
	h.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook decodes the raw webhook body.
func ParseWebhook(rawBody []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("parseWebhook: json.Unmarshal: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("parseWebhook: missing event type")
	}
	return &event, nil
}
