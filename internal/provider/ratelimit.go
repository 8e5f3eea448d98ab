package provider

import (
	"context"
	"maps"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default minimum spacing between requests to each provider.
var defaultIntervals = map[ProviderName]time.Duration{
	NameTMDB:      2 * time.Second,
	NameDiscogs:   time.Second,
	NameAudioDB:   500 * time.Millisecond,
	NameFanartTV:  334 * time.Millisecond,
	NameSetlistFM: 500 * time.Millisecond,
	NameWikipedia: 200 * time.Millisecond,
}

// DefaultIntervals returns a copy of the default per-provider request spacing.
func DefaultIntervals() map[ProviderName]time.Duration {
	return maps.Clone(defaultIntervals)
}

// RateLimiterMap holds one rate.Limiter per provider, created once at startup.
// It is the only state shared between concurrently resolved items.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[ProviderName]*rate.Limiter
}

// NewRateLimiterMap creates all provider rate limiters. Entries in
// overrides replace the defaults; a zero or negative interval disables
// limiting for that provider.
func NewRateLimiterMap(overrides map[ProviderName]time.Duration) *RateLimiterMap {
	intervals := DefaultIntervals()
	maps.Copy(intervals, overrides)

	m := &RateLimiterMap{
		limiters: make(map[ProviderName]*rate.Limiter, len(intervals)),
	}
	for name, every := range intervals {
		if every <= 0 {
			continue
		}
		m.limiters[name] = rate.NewLimiter(rate.Every(every), 1)
	}
	return m
}

// Wait blocks until the rate limiter for the given provider allows a request,
// or the context is canceled. A nil map or an unknown provider never blocks.
func (m *RateLimiterMap) Wait(ctx context.Context, name ProviderName) error {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

// Interval reports the minimum spacing enforced for name, or zero when
// requests to it are not limited.
func (m *RateLimiterMap) Interval(name ProviderName) time.Duration {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limiter.Limit())).Round(time.Millisecond)
}
