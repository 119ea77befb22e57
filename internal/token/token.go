package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"festpass/internal/status"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// signatureLen is the number of hex characters kept from the HMAC digest.
const signatureLen = 16

// Codec mints and verifies the signed tokens embedded in pass QR codes.
// A token is "{passID}:{expiryMillis}.{signature}" where the signature is
// a truncated hex HMAC-SHA256 over the payload. Tokens are never stored;
// possession of the secret key is the sole root of trust.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// New creates a codec. The secret must come from configuration; an empty
// secret is refused so a missing key can never silently fall back to a
// guessable constant.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token: secret key is required")
	}
	return &Codec{secret: []byte(secret), now: time.Now}, nil
}

// NewWithClock is New with an injectable clock, used by tests.
func NewWithClock(secret string, now func() time.Time) (*Codec, error) {
	c, err := New(secret)
	if err != nil {
		return nil, err
	}
	c.now = now
	return c, nil
}

// Mint returns a signed token for passID that verifies until now+validity.
func (c *Codec) Mint(passID string, validity time.Duration) (string, error) {
	if passID == "" {
		return "", fmt.Errorf("token: pass id is required")
	}
	expiry := c.now().Add(validity).UnixMilli()
	payload := fmt.Sprintf("%s:%d", passID, expiry)
	return payload + "." + c.sign(payload), nil
}

// Verify checks shape, signature and expiry, and returns the pass id the
// token was minted for. It fails closed: any defect yields one of
// status.ErrTokenMalformed, status.ErrTokenBadSignature or
// status.ErrTokenExpired.
//
// The expiry comparison is strict: now > expiry fails, now == expiry
// still verifies.
func (c *Codec) Verify(tok string) (string, error) {
	dot := strings.LastIndex(tok, ".")
	if dot <= 0 || dot == len(tok)-1 {
		return "", status.ErrTokenMalformed
	}
	payload, sig := tok[:dot], tok[dot+1:]

	colon := strings.LastIndex(payload, ":")
	if colon <= 0 || colon == len(payload)-1 {
		return "", status.ErrTokenMalformed
	}
	passID := payload[:colon]
	expiry, err := strconv.ParseInt(payload[colon+1:], 10, 64)
	if err != nil {
		return "", status.ErrTokenMalformed
	}

	if !hmac.Equal([]byte(sig), []byte(c.sign(payload))) {
		return "", status.ErrTokenBadSignature
	}

	if c.now().UnixMilli() > expiry {
		return "", status.ErrTokenExpired
	}

	return passID, nil
}

func (c *Codec) sign(payload string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))[:signatureLen]
}
