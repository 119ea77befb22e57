package utils

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the breaker refuses calls.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// Settings tunes a CircuitBreaker. Zero values pick defaults suited for
// payment-gateway calls.
type Settings struct {
	Name         string
	MaxRequests  uint32        // probes allowed while half open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // how long an open breaker stays open
	FailureRatio float64       // failure ratio that trips the breaker
	MinRequests  uint32        // minimum samples before tripping
}

type counts struct {
	requests uint32
	failures uint32
}

// CircuitBreaker keeps a failing upstream from being hammered. Gateway
// calls go through Execute; once the failure ratio trips, calls fail
// fast with ErrBreakerOpen until the timeout elapses, then a half-open
// probe decides whether to close again.
type CircuitBreaker struct {
	settings Settings

	mu      sync.Mutex
	state   State
	counts  counts
	expiry  time.Time
	nowFunc func() time.Time
}

func NewCircuitBreaker(s Settings) *CircuitBreaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval == 0 {
		s.Interval = 60 * time.Second
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	return &CircuitBreaker{
		settings: s,
		state:    StateClosed,
		nowFunc:  time.Now,
	}
}

// Execute runs fn under the breaker. A context error counts as a failure
// of the upstream, not of the breaker itself.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.afterRequest(err == nil)
	return err
}

// State reports the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh(cb.nowFunc())
	return cb.state
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.nowFunc()
	cb.refresh(now)

	switch cb.state {
	case StateOpen:
		return ErrBreakerOpen
	case StateHalfOpen:
		if cb.counts.requests >= cb.settings.MaxRequests {
			return ErrBreakerOpen
		}
	}

	cb.counts.requests++
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.nowFunc()
	cb.refresh(now)

	if success {
		if cb.state == StateHalfOpen {
			cb.state = StateClosed
			cb.counts = counts{}
			cb.expiry = now.Add(cb.settings.Interval)
		}
		return
	}

	cb.counts.failures++
	if cb.state == StateHalfOpen || cb.readyToTrip() {
		cb.state = StateOpen
		cb.counts = counts{}
		cb.expiry = now.Add(cb.settings.Timeout)
	}
}

func (cb *CircuitBreaker) readyToTrip() bool {
	if cb.counts.requests < cb.settings.MinRequests {
		return false
	}
	return float64(cb.counts.failures)/float64(cb.counts.requests) >= cb.settings.FailureRatio
}

// refresh advances the state machine on window expiry. Caller holds mu.
func (cb *CircuitBreaker) refresh(now time.Time) {
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.counts = counts{}
			cb.expiry = now.Add(cb.settings.Interval)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			cb.state = StateHalfOpen
			cb.counts = counts{}
			cb.expiry = time.Time{}
		}
	}
}
