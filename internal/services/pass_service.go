package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"festpass/internal/qr"
	"festpass/internal/status"
	"festpass/models"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// PassService is the persistence and state-transition authority for pass
// records. All mutating transitions run inside a store transaction so the
// scan race and the double-check-in race resolve deterministically.
type PassService struct {
	app core.App
	qr  *qr.Codec
}

func NewPassService(app core.App, qrCodec *qr.Codec) *PassService {
	return &PassService{
		app: app,
		qr:  qrCodec,
	}
}

// FindPass fetches a pass record by id.
func (s *PassService) FindPass(_ context.Context, passID string) (*core.Record, error) {
	record, err := s.app.FindRecordById("passes", passID)
	if err != nil {
		return nil, status.ErrPassNotFound
	}
	return record, nil
}

// IssuePass creates the paid pass for a settled payment and mints its QR
// credential. Calling it again for the same payment returns the existing
// pass, so webhook redelivery cannot double-issue.
func (s *PassService) IssuePass(ctx context.Context, payment *core.Record) (*core.Record, error) {
	if payment.GetString("status") != models.PaymentStatusSuccess {
		return nil, status.ErrPaymentPending
	}

	if existing, err := s.app.FindFirstRecordByData("passes", "payment_id", payment.Id); err == nil {
		return existing, nil
	}

	collection, err := s.app.FindCollectionByNameOrId("passes")
	if err != nil {
		return nil, fmt.Errorf("issuePass: find collection: %w", err)
	}

	passID := uuid.New().String()
	userID := payment.GetString("user_id")
	passType := payment.GetString("pass_type")

	encoded, err := s.qr.Encode(passID, userID, passType)
	if err != nil {
		return nil, fmt.Errorf("issuePass: %w", err)
	}

	record := core.NewRecord(collection)
	record.Id = passID
	record.Set("user_id", userID)
	record.Set("pass_type", passType)
	record.Set("amount", payment.GetInt("amount"))
	record.Set("payment_id", payment.Id)
	record.Set("status", models.PassStatusPaid)
	record.Set("qr_code", encoded.DataURI)

	if teamID := payment.GetString("team_id"); teamID != "" {
		record.Set("team_id", teamID)
		if snapshot, err := s.teamSnapshot(teamID); err == nil {
			record.Set("team_snapshot", snapshot)
		} else {
			slog.Warn("issuePass: team snapshot skipped", "team_id", teamID, "error", err)
		}
	}

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("issuePass: save pass: %w", err)
	}

	return record, nil
}

// teamSnapshot captures the member roster at payment time. The snapshot
// is immutable; live check-in state stays on the team record.
func (s *PassService) teamSnapshot(teamID string) (string, error) {
	team, err := s.app.FindRecordById("teams", teamID)
	if err != nil {
		return "", status.ErrTeamNotFound
	}

	var members []models.TeamMember
	if err := team.UnmarshalJSONField("members", &members); err != nil {
		return "", fmt.Errorf("teamSnapshot: unmarshal members: %w", err)
	}

	b, err := json.Marshal(members)
	if err != nil {
		return "", fmt.Errorf("teamSnapshot: marshal members: %w", err)
	}
	return string(b), nil
}

// ConsumePass atomically transitions a pass paid -> used. Exactly one of
// two racing scans wins; the loser gets status.ErrPassAlreadyUsed along
// with the record carrying the original used_at.
func (s *PassService) ConsumePass(ctx context.Context, passID, scannerID string) (*core.Record, error) {
	var consumed *core.Record

	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("passes", passID)
		if err != nil {
			return status.ErrPassNotFound
		}

		switch record.GetString("status") {
		case models.PassStatusUsed:
			consumed = record
			return status.ErrPassAlreadyUsed
		case models.PassStatusPaid:
			// the only state a consume is valid from
		default:
			return status.ErrPassNotPaid
		}

		record.Set("status", models.PassStatusUsed)
		record.Set("used_at", types.NowDateTime())
		record.Set("scanned_by", scannerID)

		if err := txApp.SaveWithContext(ctx, record); err != nil {
			return fmt.Errorf("consumePass: save: %w", err)
		}

		consumed = record
		return nil
	})

	return consumed, txErr
}

// CheckInMember flips one member's attendance flag inside the team
// document, addressed by member id. Re-checking an already-checked-in
// member is a conflict carrying the prior check-in time, never a silent
// success.
func (s *PassService) CheckInMember(ctx context.Context, teamID, memberID, scannerID string) (*models.TeamMember, error) {
	var checked *models.TeamMember

	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		team, err := txApp.FindRecordById("teams", teamID)
		if err != nil {
			return status.ErrTeamNotFound
		}

		var members []models.TeamMember
		if err := team.UnmarshalJSONField("members", &members); err != nil {
			return fmt.Errorf("checkInMember: unmarshal members: %w", err)
		}

		idx := (&models.Team{Members: members}).FindMember(memberID)
		if idx < 0 {
			return status.ErrMemberNotFound
		}

		if members[idx].CheckedIn {
			checked = &members[idx]
			return status.ErrAlreadyCheckedIn
		}

		now := types.NowDateTime().Time()
		members[idx].CheckedIn = true
		members[idx].CheckInTime = &now
		members[idx].CheckedInBy = scannerID

		b, err := json.Marshal(members)
		if err != nil {
			return fmt.Errorf("checkInMember: marshal members: %w", err)
		}
		team.Set("members", string(b))

		if err := txApp.SaveWithContext(ctx, team); err != nil {
			return fmt.Errorf("checkInMember: save team: %w", err)
		}

		checked = &members[idx]
		return nil
	})

	return checked, txErr
}
