package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"festpass/internal/status"
	"festpass/internal/token"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPassConsumer struct {
	mock.Mock
}

func (m *mockPassConsumer) ConsumePass(ctx context.Context, passID, scannerID string) (*core.Record, error) {
	args := m.Called(ctx, passID, scannerID)
	var record *core.Record
	if args.Get(0) != nil {
		record = args.Get(0).(*core.Record)
	}
	return record, args.Error(1)
}

func newPassRecord(t *testing.T, id, userID, passType string) *core.Record {
	t.Helper()

	collection := core.NewBaseCollection("passes")
	collection.Fields.Add(
		&core.TextField{Name: "user_id"},
		&core.TextField{Name: "pass_type"},
		&core.TextField{Name: "status"},
		&core.TextField{Name: "scanned_by"},
		&core.DateField{Name: "used_at"},
	)

	record := core.NewRecord(collection)
	record.Id = id
	record.Set("user_id", userID)
	record.Set("pass_type", passType)
	return record
}

func scanPayload(t *testing.T, tok string) string {
	t.Helper()

	b, err := json.Marshal(map[string]string{
		"pass_id":   "pass-1",
		"user_id":   "user-1",
		"pass_type": "day_pass",
		"token":     tok,
	})
	require.NoError(t, err)
	return string(b)
}

func TestCheckinService_Scan_Accepted(t *testing.T) {
	tokens, err := token.New("test-secret")
	require.NoError(t, err)

	passes := &mockPassConsumer{}
	record := newPassRecord(t, "pass-1", "user-1", "day_pass")
	passes.On("ConsumePass", mock.Anything, "pass-1", "organizer-1").Return(record, nil)

	service := NewCheckinService(tokens, passes)

	tok, err := tokens.Mint("pass-1", time.Hour)
	require.NoError(t, err)

	result, err := service.Scan(context.Background(), scanPayload(t, tok), "organizer-1")
	require.NoError(t, err)
	assert.Equal(t, "pass-1", result.PassID)
	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, "day_pass", result.PassType)
	passes.AssertExpectations(t)
}

func TestCheckinService_Scan_RawTokenFallback(t *testing.T) {
	tokens, err := token.New("test-secret")
	require.NoError(t, err)

	passes := &mockPassConsumer{}
	record := newPassRecord(t, "pass-1", "user-1", "day_pass")
	passes.On("ConsumePass", mock.Anything, "pass-1", "organizer-1").Return(record, nil)

	service := NewCheckinService(tokens, passes)

	// A legacy QR carries the bare token, no JSON envelope.
	tok, err := tokens.Mint("pass-1", time.Hour)
	require.NoError(t, err)

	result, err := service.Scan(context.Background(), tok, "organizer-1")
	require.NoError(t, err)
	assert.Equal(t, "pass-1", result.PassID)
}

func TestCheckinService_Scan_EmptyInput(t *testing.T) {
	tokens, err := token.New("test-secret")
	require.NoError(t, err)

	service := NewCheckinService(tokens, &mockPassConsumer{})

	_, err = service.Scan(context.Background(), "", "organizer-1")

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ReasonBadRequest, scanErr.Reason)
}

func TestCheckinService_Scan_InvalidToken(t *testing.T) {
	tokens, err := token.New("test-secret")
	require.NoError(t, err)

	passes := &mockPassConsumer{}
	service := NewCheckinService(tokens, passes)

	_, err = service.Scan(context.Background(), "garbage-token", "organizer-1")

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ReasonInvalidQR, scanErr.Reason)

	// The store must never be consulted for an unverifiable token.
	passes.AssertNotCalled(t, "ConsumePass", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckinService_Scan_ExpiredToken(t *testing.T) {
	now := time.Now()
	tokens, err := token.NewWithClock("test-secret", func() time.Time { return now })
	require.NoError(t, err)

	service := NewCheckinService(tokens, &mockPassConsumer{})

	tok, err := tokens.Mint("pass-1", time.Millisecond)
	require.NoError(t, err)
	now = now.Add(2 * time.Millisecond)

	_, err = service.Scan(context.Background(), scanPayload(t, tok), "organizer-1")

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ReasonInvalidQR, scanErr.Reason)
	assert.ErrorIs(t, scanErr.Err, status.ErrTokenExpired)
}

func TestCheckinService_Scan_PassNotFound(t *testing.T) {
	tokens, err := token.New("test-secret")
	require.NoError(t, err)

	passes := &mockPassConsumer{}
	passes.On("ConsumePass", mock.Anything, "pass-1", "organizer-1").Return(nil, status.ErrPassNotFound)

	service := NewCheckinService(tokens, passes)

	tok, err := tokens.Mint("pass-1", time.Hour)
	require.NoError(t, err)

	_, err = service.Scan(context.Background(), scanPayload(t, tok), "organizer-1")

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ReasonNotFound, scanErr.Reason)
}

func TestCheckinService_Scan_AlreadyUsed(t *testing.T) {
	tokens, err := token.New("test-secret")
	require.NoError(t, err)

	usedAt := types.NowDateTime()
	record := newPassRecord(t, "pass-1", "user-1", "day_pass")
	record.Set("used_at", usedAt)

	passes := &mockPassConsumer{}
	passes.On("ConsumePass", mock.Anything, "pass-1", "organizer-1").Return(record, status.ErrPassAlreadyUsed)

	service := NewCheckinService(tokens, passes)

	tok, err := tokens.Mint("pass-1", time.Hour)
	require.NoError(t, err)

	_, err = service.Scan(context.Background(), scanPayload(t, tok), "organizer-1")

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ReasonAlreadyUsed, scanErr.Reason)
	require.NotNil(t, scanErr.UsedAt)
	assert.WithinDuration(t, usedAt.Time(), *scanErr.UsedAt, time.Second)
}
