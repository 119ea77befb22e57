package cashfree

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(secret, timestamp string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK"}`)
	sig := signBody("whsecret", "1700000000", body)

	assert.True(t, VerifyWebhookSignature("1700000000", body, sig, "whsecret"))

	// Wrong secret, wrong timestamp or altered body must all fail.
	assert.False(t, VerifyWebhookSignature("1700000000", body, sig, "other"))
	assert.False(t, VerifyWebhookSignature("1700000001", body, sig, "whsecret"))
	assert.False(t, VerifyWebhookSignature("1700000000", []byte(`{}`), sig, "whsecret"))
	assert.False(t, VerifyWebhookSignature("1700000000", body, "garbage", "whsecret"))
}

func TestParseWebhook(t *testing.T) {
	raw := []byte(`{
		"type": "PAYMENT_SUCCESS_WEBHOOK",
		"data": {
			"order": {"order_id": "order_42"},
			"payment": {"cf_payment_id": 12345, "payment_status": "SUCCESS"}
		}
	}`)

	event, err := ParseWebhook(raw)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSuccess, event.Type)
	assert.Equal(t, "order_42", event.Data.Order.OrderID)
	assert.Equal(t, "SUCCESS", event.Data.Payment.PaymentStatus)
}

func TestParseWebhook_Malformed(t *testing.T) {
	_, err := ParseWebhook([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseWebhook([]byte(`{"data":{}}`))
	assert.Error(t, err)
}
