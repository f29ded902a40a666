package ratelimit

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuido/cuidosvc/domain"
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

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestLimiter_SixthRequestRejectedThenRefills(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Capacity: 5, Period: 60 * time.Second}, clock)
	key := "10.0.0.1:/api/auth/login"

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow(key), "request %d", i+1)
		clock.Advance(time.Second)
	}

	err := l.Allow(key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))

	clock.Advance(56 * time.Second)
	assert.NoError(t, l.Allow(key))
}

func TestLimiter_IntervalRefillIsNotGradual(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Capacity: 2, Period: time.Minute}, clock)

	require.NoError(t, l.Allow("k"))
	require.NoError(t, l.Allow("k"))

	clock.Advance(59 * time.Second)
	ok, wait := l.Take("k")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	clock.Advance(time.Second)
	assert.NoError(t, l.Allow("k"))
	assert.NoError(t, l.Allow("k"))
	assert.Error(t, l.Allow("k"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(Config{Capacity: 1, Period: time.Minute}, newFakeClock())

	require.NoError(t, l.Allow("1.1.1.1:/api/auth/login"))
	assert.Error(t, l.Allow("1.1.1.1:/api/auth/login"))
	assert.NoError(t, l.Allow("1.1.1.1:/api/auth/register"))
	assert.NoError(t, l.Allow("2.2.2.2:/api/auth/login"))
	assert.Equal(t, 3, l.Len())
}

func TestLimiter_ConcurrentConsumersNeverOverspend(t *testing.T) {
	l := New(Config{Capacity: 50, Period: time.Hour}, newFakeClock())

	var granted int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") == nil {
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), granted)
}

func TestLimiter_Prune(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Capacity: 1, Period: time.Minute}, clock)

	require.NoError(t, l.Allow("old"))
	clock.Advance(2 * time.Minute)
	require.NoError(t, l.Allow("new"))

	assert.Equal(t, 1, l.Prune())
	assert.Equal(t, 1, l.Len())
}

func TestNew_InvalidConfigFallsBack(t *testing.T) {
	l := New(Config{}, nil)
	assert.Equal(t, DefaultConfig(), l.cfg)
}
