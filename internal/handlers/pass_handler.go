package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"festpass/internal/notify"
	"festpass/internal/qr"
	"festpass/internal/ratelimit"
	"festpass/internal/services"
	"festpass/internal/status"
	"festpass/models"
	"festpass/monitoring"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PassHandler struct {
	app            *pocketbase.PocketBase
	passService    *services.PassService
	checkinService *services.CheckinService
	qrCodec        *qr.Codec
	limiter        *ratelimit.Limiter
	notifier       *notify.Notifier
	monitor        *monitoring.Monitor
}

func NewPassHandler(
	app *pocketbase.PocketBase,
	passService *services.PassService,
	checkinService *services.CheckinService,
	qrCodec *qr.Codec,
	limiter *ratelimit.Limiter,
	notifier *notify.Notifier,
	monitor *monitoring.Monitor,
) *PassHandler {
	return &PassHandler{
		app:            app,
		passService:    passService,
		checkinService: checkinService,
		qrCodec:        qrCodec,
		limiter:        limiter,
		notifier:       notifier,
		monitor:        monitor,
	}
}

// PassTypes returns the canonical price table. Public, no auth.
func (h *PassHandler) PassTypes(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{"pass_types": models.PassTypes()})
}

// GetPassQR re-renders the QR credential for an issued pass. The QR is
// derived, never the source of truth, so regenerating is always safe.
// Owner or organizer only.
func (h *PassHandler) GetPassQR(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	passID := e.Request.URL.Query().Get("passId")
	if passID == "" {
		return apis.NewBadRequestError("passId is required", nil)
	}

	ctx := e.Request.Context()
	pass, err := h.passService.FindPass(ctx, passID)
	if err != nil {
		return apis.NewNotFoundError("Pass not found", nil)
	}

	if pass.GetString("user_id") != auth.Id {
		if _, err := requireOrganizer(h.app, e); err != nil {
			return err
		}
	}

	encoded, err := h.qrCodec.Encode(pass.Id, pass.GetString("user_id"), pass.GetString("pass_type"))
	if err != nil {
		slog.Error("h.qrCodec.Encode()", "pass_id", pass.Id, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"pass_id":   pass.Id,
		"user_id":   pass.GetString("user_id"),
		"pass_type": pass.GetString("pass_type"),
		"qr_code":   encoded.DataURI,
	})
}

// RenderQR renders a QR for an arbitrary payload. Organizer-only; used by
// operators to produce test codes for gate-scanner checks.
func (h *PassHandler) RenderQR(e *core.RequestEvent) error {
	if _, err := requireOrganizer(h.app, e); err != nil {
		return err
	}

	var req struct {
		PassID   string `json:"pass_id"`
		UserID   string `json:"user_id"`
		PassType string `json:"pass_type"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.PassID == "" {
		return apis.NewBadRequestError("pass_id is required", nil)
	}

	encoded, err := h.qrCodec.Encode(req.PassID, req.UserID, req.PassType)
	if err != nil {
		slog.Error("h.qrCodec.Encode()", "pass_id", req.PassID, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"pass_id":   req.PassID,
		"user_id":   req.UserID,
		"pass_type": req.PassType,
		"text":      encoded.Text,
		"qr_code":   encoded.DataURI,
	})
}

// Scan consumes a scanned pass QR. Organizer-only and rate-limited; the
// consume itself is a single store transaction so two racing scans of the
// same code resolve to one success and one conflict.
func (h *PassHandler) Scan(e *core.RequestEvent) error {
	organizer, err := requireOrganizer(h.app, e)
	if err != nil {
		return err
	}

	if err := h.checkRateLimit(e, "scan"); err != nil {
		return err
	}

	var req struct {
		QRData string `json:"qr_data"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()
	result, err := h.checkinService.Scan(ctx, req.QRData, organizer.Id)
	if err == nil {
		h.monitor.TrackScan("accepted")
		h.notifier.PassConsumed(result.PassID, result.PassType, organizer.Id)
		return e.JSON(http.StatusOK, map[string]any{
			"success": true,
			"pass":    result,
		})
	}

	var scanErr *services.ScanError
	if !errors.As(err, &scanErr) {
		h.monitor.TrackScan("error")
		slog.Error("h.checkinService.Scan()", "scanner", organizer.Id, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}

	h.monitor.TrackScan(scanErr.Reason)
	slog.Info("scan rejected", "scanner", organizer.Id, "reason", scanErr.Reason, "error", scanErr.Err)

	switch scanErr.Reason {
	case services.ReasonBadRequest:
		return apis.NewBadRequestError("qr_data is required", nil)
	case services.ReasonInvalidQR:
		return apis.NewBadRequestError("Invalid QR code", map[string]any{"reason": scanErr.Reason})
	case services.ReasonNotFound:
		return apis.NewNotFoundError("Pass not found", nil)
	case services.ReasonAlreadyUsed:
		data := map[string]any{"reason": scanErr.Reason}
		if scanErr.UsedAt != nil {
			data["used_at"] = scanErr.UsedAt
		}
		return apis.NewApiError(http.StatusConflict, "Pass already used", data)
	default:
		return apis.NewInternalServerError("internal error", scanErr)
	}
}

// ScanMember checks in one member of a group registration. Organizer-only
// and rate-limited; same conflict taxonomy as Scan.
func (h *PassHandler) ScanMember(e *core.RequestEvent) error {
	organizer, err := requireOrganizer(h.app, e)
	if err != nil {
		return err
	}

	if err := h.checkRateLimit(e, "scan-member"); err != nil {
		return err
	}

	var req struct {
		TeamID   string `json:"team_id"`
		MemberID string `json:"member_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.TeamID == "" || req.MemberID == "" {
		return apis.NewBadRequestError("team_id and member_id are required", nil)
	}

	ctx := e.Request.Context()
	member, err := h.passService.CheckInMember(ctx, req.TeamID, req.MemberID, organizer.Id)
	switch {
	case err == nil:
		h.monitor.TrackScan("member_checked_in")
		h.notifier.MemberCheckedIn(req.TeamID, req.MemberID, organizer.Id)
		return e.JSON(http.StatusOK, map[string]any{
			"success": true,
			"member":  member,
		})
	case errors.Is(err, status.ErrTeamNotFound):
		return apis.NewNotFoundError("Team not found", nil)
	case errors.Is(err, status.ErrMemberNotFound):
		return apis.NewNotFoundError("Member not found", nil)
	case errors.Is(err, status.ErrAlreadyCheckedIn):
		data := map[string]any{"reason": "already_checked_in"}
		if member != nil && member.CheckInTime != nil {
			data["checked_in_at"] = member.CheckInTime
		}
		return apis.NewApiError(http.StatusConflict, "Member already checked in", data)
	default:
		slog.Error("h.passService.CheckInMember()", "team_id", req.TeamID, "member_id", req.MemberID, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}
}

// checkRateLimit fails open when the counter store itself errors; losing
// the throttle briefly beats refusing every scan at the gate.
func (h *PassHandler) checkRateLimit(e *core.RequestEvent, scope string) error {
	res, err := h.limiter.Check(e.Request.Context(), scope+":"+callerKey(e))
	if err != nil {
		h.monitor.TrackRateLimitFailOpen(scope)
		slog.Warn("rate limit check failed", "scope", scope, "error", err)
		return nil
	}
	if !res.Allowed {
		return apis.NewTooManyRequestsError("Rate limit exceeded. Please try again later.", map[string]any{
			"retry_after_ms": res.RetryAfter.Milliseconds(),
		})
	}
	return nil
}
