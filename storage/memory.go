package storage

import (
	"errors"
	"sync"

	"pagekit/enhance"
)

// ErrQuotaExceeded is returned when a write would push a quota-limited
// store past its budget.
var ErrQuotaExceeded = errors.New("storage: quota exceeded")

// Memory is an in-process backend. A positive Quota caps the total size
// of stored keys and values in bytes.
type Memory struct {
	Quota int

	mu   sync.RWMutex
	data map[string][]byte
	size int
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// GetItem implements enhance.Backend.
func (m *Memory) GetItem(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, enhance.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// SetItem implements enhance.Backend.
func (m *Memory) SetItem(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	next := m.size + len(value)
	if old, ok := m.data[key]; ok {
		next -= len(old)
	} else {
		next += len(key)
	}
	if m.Quota > 0 && next > m.Quota {
		return ErrQuotaExceeded
	}
	m.data[key] = append([]byte(nil), value...)
	m.size = next
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
