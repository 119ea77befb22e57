package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Regexp(t, "^[0-9A-F]+$", code)

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func newTestBreaker(now *time.Time) *CircuitBreaker {
	cb := NewCircuitBreaker(Settings{
		Name:         "test",
		MaxRequests:  1,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  4,
	})
	cb.nowFunc = func() time.Time { return *now }
	return cb
}

func TestCircuitBreaker_TripsOnFailureRatio(t *testing.T) {
	now := time.Now()
	cb := newTestBreaker(&now)

	upstreamErr := errors.New("gateway down")
	fail := func(ctx context.Context) error { return upstreamErr }

	// Below MinRequests the breaker never trips, whatever the ratio.
	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), fail)
		assert.ErrorIs(t, err, upstreamErr)
	}
	assert.Equal(t, StateClosed, cb.State())

	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, StateOpen, cb.State())

	// Open breaker fails fast without calling the upstream.
	called := false
	err = cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	now := time.Now()
	cb := newTestBreaker(&now)

	fail := func(ctx context.Context) error { return errors.New("gateway down") }
	for i := 0; i < 4; i++ {
		cb.Execute(context.Background(), fail)
	}
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(31 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A successful probe closes the breaker again.
	err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := newTestBreaker(&now)

	fail := func(ctx context.Context) error { return errors.New("gateway down") }
	for i := 0; i < 4; i++ {
		cb.Execute(context.Background(), fail)
	}
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(31 * time.Second)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, cb.State())
}
