package storage

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps values for the life of the process.
type MemoryStore struct {
	store *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.store.Set(key, value, gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
