package storage

import (
	"context"
	"errors"
	"sync"
)

// Memory is an in-process KV. It backs --dry-run sessions and tests.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }

// CopyToMemory returns a Memory holding the raw task and tier snapshots of
// src. Values are copied verbatim, so a corrupt snapshot stays corrupt and
// src is never modified.
func CopyToMemory(ctx context.Context, src KV) (*Memory, error) {
	m := NewMemory()
	for _, key := range []string{KeyTasks, KeyTiers} {
		v, err := src.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.data[key] = v
	}
	return m, nil
}
