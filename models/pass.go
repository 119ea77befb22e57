package models

import (
	"time"
)

type Pass struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	PassType  string     `json:"pass_type"`
	Amount    int        `json:"amount"`
	PaymentID string     `json:"payment_id"`
	Status    string     `json:"status"` // pending, paid, used, failed
	QRCode    string     `json:"qr_code,omitempty"`
	TeamID    string     `json:"team_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ScannedBy string     `json:"scanned_by,omitempty"`
}

// Pass lifecycle states. A pass moves paid -> used at most once;
// used_at and scanned_by are write-once.
const (
	PassStatusPending = "pending"
	PassStatusPaid    = "paid"
	PassStatusUsed    = "used"
	PassStatusFailed  = "failed"
)

// Canonical pass types sold for the festival.
const (
	PassTypeDay       = "day_pass"
	PassTypeGroup     = "group_pass"
	PassTypeProshow   = "proshow_pass"
	PassTypeAllAccess = "all_access_pass"
	PassTypeTest      = "test_pass"
)

// passPrices is the canonical price table in INR. The create-order path
// rejects any amount that does not match it, so a tampered client cannot
// buy a pass for less.
var passPrices = map[string]int{
	PassTypeDay:       500,
	PassTypeGroup:     800,
	PassTypeProshow:   1000,
	PassTypeAllAccess: 1500,
	PassTypeTest:      1,
}

// PriceFor returns the canonical price for a pass type.
func PriceFor(passType string) (int, bool) {
	price, ok := passPrices[passType]
	return price, ok
}

// PassTypes returns the full price table keyed by pass type.
func PassTypes() map[string]int {
	out := make(map[string]int, len(passPrices))
	for k, v := range passPrices {
		out[k] = v
	}
	return out
}
