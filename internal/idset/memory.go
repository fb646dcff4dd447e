package idset

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage keeps id lists in process memory
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]string
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]string)}
}

func (m *MemoryStorage) Load(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data[key]), nil
}

func (m *MemoryStorage) Save(ctx context.Context, key string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(ids)
	return nil
}
