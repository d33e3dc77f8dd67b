package repository

import (
	"context"
	"sync"
)

// MemoryRepository is a process-local key-value store. Nothing survives a restart.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]string)}
}

func (r *MemoryRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.entries[key]
	return value, ok, nil
}

func (r *MemoryRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
