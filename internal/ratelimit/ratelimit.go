package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store counts requests per caller key within a rolling window. The
// backing store is injected so single-instance deployments can run on an
// in-process map while multi-instance deployments share redis behind the
// same interface.
type Store interface {
	// Incr bumps the counter for key, starting a new window if none is
	// active, and returns the count plus the time left in the window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Result of a limiter check.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is a fixed-window request throttle keyed by caller identity.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
}

func New(store Store, limit int64, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Check records one request for key and reports whether it is allowed.
// When denied, RetryAfter is the remaining window the caller should wait.
func (l *Limiter) Check(ctx context.Context, key string) (*Result, error) {
	count, ttl, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return nil, err
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:    count <= l.limit,
		Remaining:  remaining,
		RetryAfter: ttl,
	}, nil
}

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is a process-local counter table. It does not coordinate
// across independently scaled instances; use RedisStore for that.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &memoryEntry{count: 0, resetAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++

	return e.count, e.resetAt.Sub(now), nil
}

// RedisStore backs the limiter with a shared redis, INCR with an expiry
// set on the first hit of each window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		ttl = window
	}

	return count, ttl, nil
}
