package store

import (
	"context"
	"sync"
)

// Memory is an in-process document store used by tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// FailWrites makes SetMany and Update return this error without applying
	// anything.
	FailWrites error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

// Get returns a copy of the stored document for key, or nil if absent.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.docs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// SetMany applies all documents under one lock.
func (m *Memory) SetMany(_ context.Context, docs map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for k, v := range docs {
		m.docs[k] = append([]byte(nil), v...)
	}
	return nil
}

// GetMany returns copies of the stored documents for keys. Absent keys are
// omitted.
func (m *Memory) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(keys), nil
}

// Update runs fn against the current documents and applies its result, all
// under the write lock.
func (m *Memory) Update(_ context.Context, keys []string, fn func(current map[string][]byte) (map[string][]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, err := fn(m.snapshot(keys))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for k, v := range docs {
		m.docs[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *Memory) snapshot(keys []string) map[string][]byte {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.docs[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out
}
