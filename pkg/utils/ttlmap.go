package utils

import (
	"context"
	"sync"
	"time"
)

// TTLMap provides a thread-safe map with expiring entries.
// Expired entries are invisible to Get immediately and are physically
// removed by Sweep, which Run calls on a fixed interval.
type TTLMap[K comparable, V any] struct {
	mu      sync.RWMutex
	data    map[K]V
	expires map[K]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// TTLMapOption configures a TTLMap.
type TTLMapOption[K comparable, V any] func(*TTLMap[K, V])

// WithClock replaces the wall clock used for expiry decisions.
func WithClock[K comparable, V any](now func() time.Time) TTLMapOption[K, V] {
	return func(m *TTLMap[K, V]) {
		m.now = now
	}
}

// NewTTLMap creates a new TTLMap with the specified TTL duration.
// No background goroutine is started; call Run to sweep periodically.
func NewTTLMap[K comparable, V any](ttl time.Duration, opts ...TTLMapOption[K, V]) *TTLMap[K, V] {
	m := &TTLMap[K, V]{
		data:    make(map[K]V),
		expires: make(map[K]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Get retrieves a value from the map.
// Returns the value and whether it exists/is valid.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[key]
	if !exists {
		var zero V
		return zero, false
	}

	// Check if expired
	if !m.now().Before(m.expires[key]) {
		var zero V
		return zero, false
	}

	return value, true
}

// Set adds or updates a value in the map.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	m.expires[key] = m.now().Add(m.ttl)
}

// Delete removes a key from the map.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.expires, key)
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (m *TTLMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// Sweep removes all expired entries and returns how many were removed.
func (m *TTLMap[K, V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0

	for key, expires := range m.expires {
		if !now.Before(expires) {
			delete(m.data, key)
			delete(m.expires, key)
			removed++
		}
	}

	return removed
}

// Run sweeps expired entries every interval until the context is canceled.
func (m *TTLMap[K, V]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
