// Package ratelimit caps requests per key with token buckets that are
// refilled to full capacity at fixed intervals.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

// Config holds rate limiting configuration.
type Config struct {
	Capacity int
	Period   time.Duration
}

// DefaultConfig allows five requests per minute.
func DefaultConfig() Config {
	return Config{Capacity: 5, Period: time.Minute}
}

type bucket struct {
	mu         sync.Mutex
	tokens     int
	refilledAt time.Time
}

// take consumes one token, refilling first if one or more whole periods have
// elapsed since the last refill. It returns the wait until the next refill
// when the bucket is empty.
func (b *bucket) take(now time.Time, cfg Config) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.refilledAt); elapsed >= cfg.Period {
		periods := elapsed / cfg.Period
		b.refilledAt = b.refilledAt.Add(periods * cfg.Period)
		b.tokens = cfg.Capacity
	}

	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}
	return false, b.refilledAt.Add(cfg.Period).Sub(now)
}

// Limiter holds one bucket per key.
type Limiter struct {
	cfg     Config
	clock   domain.Clock
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// New creates a limiter. A nil clock uses the wall clock.
func New(cfg Config, clock domain.Clock) *Limiter {
	if cfg.Capacity <= 0 || cfg.Period <= 0 {
		cfg = DefaultConfig()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Limiter{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

func (l *Limiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	b = &bucket{tokens: l.cfg.Capacity, refilledAt: now}
	l.buckets[key] = b
	return b
}

// Take consumes a token for key. When none is left it reports how long
// until the bucket refills.
func (l *Limiter) Take(key string) (bool, time.Duration) {
	now := l.clock.Now()
	return l.bucketFor(key, now).take(now, l.cfg)
}

// Allow consumes a token for key and returns domain.ErrRateLimited when the
// bucket is empty.
func (l *Limiter) Allow(key string) error {
	if ok, wait := l.Take(key); !ok {
		return fmt.Errorf("%w: retry in %s", domain.ErrRateLimited, wait.Round(time.Second))
	}
	return nil
}

// Prune drops buckets that have not been touched for a full period; they
// would be refilled on next use anyway.
func (l *Limiter) Prune() int {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		b.mu.Lock()
		stale := now.Sub(b.refilledAt) >= l.cfg.Period
		b.mu.Unlock()
		if stale {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}
