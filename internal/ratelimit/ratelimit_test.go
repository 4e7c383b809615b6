package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory() (*MemoryLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter()
	l.now = clock.Now
	return l, clock
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l, clock := newTestMemory()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := l.Allow(ctx, "upload:1.2.3.4", 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i+1)
	}

	clock.Advance(20 * time.Second)
	res, err := l.Allow(ctx, "upload:1.2.3.4", 10, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 40*time.Second, res.RetryAfter)

	clock.Advance(40 * time.Second)
	res, err = l.Allow(ctx, "upload:1.2.3.4", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "new window after reset")
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestMemory()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, _ := l.Allow(ctx, "report:10.0.0.1", 2, time.Minute)
		require.True(t, res.Allowed)
	}
	res, _ := l.Allow(ctx, "report:10.0.0.1", 2, time.Minute)
	assert.False(t, res.Allowed)

	res, _ = l.Allow(ctx, "report:10.0.0.2", 2, time.Minute)
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "register:10.0.0.1", 5, time.Minute)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_SweepsExpired(t *testing.T) {
	l, clock := newTestMemory()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("k%d", i), 1, time.Minute)
	}
	assert.Len(t, l.buckets, 50)

	clock.Advance(2 * time.Minute)
	_, _ = l.Allow(ctx, "fresh", 1, time.Minute)
	assert.Len(t, l.buckets, 1)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Allow(ctx, "k", 10, time.Hour)
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestRedisLimiter_FirstHitSetsExpiry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := &RedisLimiter{client: db}

	mock.ExpectIncr("ratelimit:upload:1.2.3.4").SetVal(1)
	mock.ExpectExpire("ratelimit:upload:1.2.3.4", time.Minute).SetVal(true)

	res, err := l.Allow(context.Background(), "upload:1.2.3.4", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLimiter_WithinLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := &RedisLimiter{client: db}

	mock.ExpectIncr("ratelimit:register:ip").SetVal(5)

	res, err := l.Allow(context.Background(), "register:ip", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLimiter_OverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := &RedisLimiter{client: db}

	mock.ExpectIncr("ratelimit:upload:ip").SetVal(11)
	mock.ExpectPTTL("ratelimit:upload:ip").SetVal(42 * time.Second)

	res, err := l.Allow(context.Background(), "upload:ip", 10, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 42*time.Second, res.RetryAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLimiter_RestoresMissingExpiry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := &RedisLimiter{client: db}

	mock.ExpectIncr("ratelimit:report:ip").SetVal(3)
	mock.ExpectPTTL("ratelimit:report:ip").SetVal(-1)
	mock.ExpectExpire("ratelimit:report:ip", time.Minute).SetVal(true)

	res, err := l.Allow(context.Background(), "report:ip", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLimiter_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := &RedisLimiter{client: db}

	mock.ExpectIncr("ratelimit:k").SetErr(errors.New("connection refused"))

	_, err := l.Allow(context.Background(), "k", 1, time.Minute)
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewRedisLimiter_BadURL(t *testing.T) {
	_, _, err := NewRedisLimiter(context.Background(), "not a url")
	assert.Error(t, err)
}
