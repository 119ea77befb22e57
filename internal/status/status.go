package status

import "errors"

var (
	// Token verification failures. Callers usually collapse these into a
	// single "invalid QR" message but the distinct reason is kept for logs.
	ErrTokenMalformed    = errors.New("token: malformed token")
	ErrTokenBadSignature = errors.New("token: signature mismatch")
	ErrTokenExpired      = errors.New("token: token expired")

	// Payment / order failures.
	ErrPriceMismatch    = errors.New("order: amount does not match pass type price")
	ErrUnknownPassType  = errors.New("order: unknown pass type")
	ErrGateway          = errors.New("gateway: payment gateway error")
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrMalformedWebhook = errors.New("webhook: malformed payload")
	ErrPaymentNotFound  = errors.New("payment: payment not found")
	ErrPaymentPending   = errors.New("payment: payment not settled yet")

	// Pass / check-in failures.
	ErrPassNotFound     = errors.New("pass: pass not found")
	ErrPassNotPaid      = errors.New("pass: pass is not in paid state")
	ErrPassAlreadyUsed  = errors.New("pass: pass already used")
	ErrTeamNotFound     = errors.New("team: team not found")
	ErrMemberNotFound   = errors.New("team: member not found")
	ErrAlreadyCheckedIn = errors.New("team: member already checked in")
)
