package qr

import (
	"encoding/base64"
	"encoding/json"
	"festpass/internal/token"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultValidity is how long a freshly minted pass QR stays scannable.
const DefaultValidity = 30 * 24 * time.Hour

// imageSize is the rendered QR raster size in pixels.
const imageSize = 256

// Payload is the JSON envelope encoded into the scannable image.
type Payload struct {
	PassID   string `json:"pass_id"`
	UserID   string `json:"user_id"`
	PassType string `json:"pass_type"`
	Token    string `json:"token"`
}

// Encoded carries both the text payload and the rendered image.
type Encoded struct {
	Text    string `json:"text"`
	DataURI string `json:"data_uri"`
}

// Codec wraps signed tokens into transportable QR payloads.
type Codec struct {
	tokens   *token.Codec
	validity time.Duration
}

func New(tokens *token.Codec, validity time.Duration) *Codec {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Codec{tokens: tokens, validity: validity}
}

// Encode mints a signed token for the pass and renders the JSON payload
// as a PNG QR code returned as a self-contained data URI.
func (c *Codec) Encode(passID, userID, passType string) (*Encoded, error) {
	tok, err := c.tokens.Mint(passID, c.validity)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}

	b, err := json.Marshal(Payload{
		PassID:   passID,
		UserID:   userID,
		PassType: passType,
		Token:    tok,
	})
	if err != nil {
		return nil, fmt.Errorf("qr encode: json.Marshal: %w", err)
	}

	png, err := qrcode.Encode(string(b), qrcode.Medium, imageSize)
	if err != nil {
		return nil, fmt.Errorf("qr encode: qrcode.Encode: %w", err)
	}

	return &Encoded{
		Text:    string(b),
		DataURI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// Decode extracts the signed token from scanned QR text. Payloads are
// JSON; if the text is not valid JSON the whole string is treated as a
// raw token. Passes issued before the JSON envelope carry bare tokens,
// so this fallback must stay.
func Decode(raw string) string {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err == nil && p.Token != "" {
		return p.Token
	}
	return raw
}
