package session

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps sessions in process memory. Values expire ttl after
// their last write.
type MemoryBackend struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		ttl:     ttl,
		entries: make(map[string]map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryBackend) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sessionID][key]
	if !ok || !m.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.entries[sessionID]
	if !ok {
		values = make(map[string]memoryEntry)
		m.entries[sessionID] = values
	}
	values[key] = memoryEntry{value: value, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryBackend) SetIfAbsent(_ context.Context, sessionID, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[sessionID][key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	values, ok := m.entries[sessionID]
	if !ok {
		values = make(map[string]memoryEntry)
		m.entries[sessionID] = values
	}
	values[key] = memoryEntry{value: value, expiresAt: now.Add(m.ttl)}
	return true, nil
}

func (m *MemoryBackend) Delete(_ context.Context, sessionID string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := m.entries[sessionID]
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		delete(m.entries, sessionID)
	}
	return nil
}

func (m *MemoryBackend) Purge(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var n int64
	for sid, values := range m.entries {
		for k, e := range values {
			if !now.Before(e.expiresAt) {
				delete(values, k)
				n++
			}
		}
		if len(values) == 0 {
			delete(m.entries, sid)
		}
	}
	return n, nil
}
