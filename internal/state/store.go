package state

import (
	"context"
	"sync"
	"time"
)

// Store records when each notification key was last delivered. The debouncer
// consults it so duplicate transitions are suppressed within the window, and
// a restart does not re-send an alert that just went out (redis backend).
type Store interface {
	// LastSent returns the last delivery time for key.
	// ok is false when no record exists.
	LastSent(ctx context.Context, key string) (at time.Time, ok bool, err error)

	// MarkSent records a delivery at the given time.
	MarkSent(ctx context.Context, key string, at time.Time) error
}

// Memory is an in-process Store. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	sent map[string]time.Time
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{sent: make(map[string]time.Time)}
}

// LastSent implements Store.
func (m *Memory) LastSent(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.sent[key]
	return at, ok, nil
}

// MarkSent implements Store.
func (m *Memory) MarkSent(_ context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[key] = at
	return nil
}
