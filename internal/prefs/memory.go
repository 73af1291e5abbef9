package prefs

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryKV keeps preferences in process memory. Values are lost on restart.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	return m.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value until ttl elapses; a zero ttl never expires.
func (m *MemoryKV) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

// Delete removes key. Only tests and tooling need it; the app never deletes preferences.
func (m *MemoryKV) Delete(_ context.Context, key string) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}
