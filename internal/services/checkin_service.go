package services

import (
	"context"
	"errors"
	"time"

	"festpass/internal/qr"
	"festpass/internal/status"
	"festpass/internal/token"

	"github.com/pocketbase/pocketbase/core"
)

// Scan rejection reason codes, stable for the operator UI.
const (
	ReasonBadRequest  = "bad_request"
	ReasonInvalidQR   = "invalid_qr"
	ReasonNotFound    = "not_found"
	ReasonAlreadyUsed = "already_used"
)

// PassConsumer is the slice of the pass store the scan pipeline needs.
type PassConsumer interface {
	ConsumePass(ctx context.Context, passID, scannerID string) (*core.Record, error)
}

// ScanResult summarizes an accepted (or conflicted) scan.
type ScanResult struct {
	PassID   string     `json:"pass_id"`
	UserID   string     `json:"user_id"`
	PassType string     `json:"pass_type"`
	UsedAt   *time.Time `json:"used_at,omitempty"`
}

// ScanError is a terminal pipeline failure with its stable reason code.
type ScanError struct {
	Reason string
	Err    error
	UsedAt *time.Time
}

func (e *ScanError) Error() string { return e.Err.Error() }

func (e *ScanError) Unwrap() error { return e.Err }

// CheckinService runs the gate-scan pipeline:
// decode -> validate signature -> look up and consume. Each stage failure
// is terminal for the scan attempt; there are no retries.
type CheckinService struct {
	tokens *token.Codec
	passes PassConsumer
}

func NewCheckinService(tokens *token.Codec, passes PassConsumer) *CheckinService {
	return &CheckinService{
		tokens: tokens,
		passes: passes,
	}
}

// Scan decodes scanned QR text, validates the embedded signed token and
// consumes the pass on behalf of scannerID.
func (s *CheckinService) Scan(ctx context.Context, qrData, scannerID string) (*ScanResult, error) {
	if qrData == "" {
		return nil, &ScanError{Reason: ReasonBadRequest, Err: status.ErrTokenMalformed}
	}

	tok := qr.Decode(qrData)

	passID, err := s.tokens.Verify(tok)
	if err != nil {
		return nil, &ScanError{Reason: ReasonInvalidQR, Err: err}
	}

	record, err := s.passes.ConsumePass(ctx, passID, scannerID)
	switch {
	case err == nil:
		return &ScanResult{
			PassID:   record.Id,
			UserID:   record.GetString("user_id"),
			PassType: record.GetString("pass_type"),
		}, nil

	case errors.Is(err, status.ErrPassNotFound):
		return nil, &ScanError{Reason: ReasonNotFound, Err: err}

	case errors.Is(err, status.ErrPassAlreadyUsed):
		scanErr := &ScanError{Reason: ReasonAlreadyUsed, Err: err}
		if record != nil {
			usedAt := record.GetDateTime("used_at").Time()
			scanErr.UsedAt = &usedAt
		}
		return nil, scanErr

	case errors.Is(err, status.ErrPassNotPaid):
		return nil, &ScanError{Reason: ReasonInvalidQR, Err: err}

	default:
		return nil, err
	}
}
