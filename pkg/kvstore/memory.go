package kvstore

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps values in process memory. Entries never expire.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	raw, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	value, _ := raw.(string)
	return value, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

// RemoveMany implements Store.
func (s *MemoryStore) RemoveMany(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return nil
}
