package repository

import (
	"context"
	"sync"
)

type memoryStorageRepo struct {
	mu    sync.RWMutex
	store map[string]map[string]string
}

func NewMemoryStorageRepository() StorageRepository {
	return &memoryStorageRepo{
		store: make(map[string]map[string]string),
	}
}

func (r *memoryStorageRepo) Get(ctx context.Context, namespace, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.store[namespace][key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (r *memoryStorageRepo) Set(ctx context.Context, namespace, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ns, ok := r.store[namespace]
	if !ok {
		ns = make(map[string]string)
		r.store[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (r *memoryStorageRepo) Delete(ctx context.Context, namespace, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store[namespace], key)
	return nil
}
