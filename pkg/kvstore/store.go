// Package kvstore is the string key/value contract the planner persists
// through, with memory, file, redis and postgres backends.
package kvstore

import (
	"context"
	"time"
)

// Store persists opaque string values by key.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// RemoveMany deletes every key; absent keys are ignored.
	RemoveMany(ctx context.Context, keys ...string) error
}

// Observer receives the latency of every store operation.
type Observer interface {
	ObserveStorageOperation(backend, operation string, duration time.Duration, err error)
}

type instrumentedStore struct {
	next     Store
	observer Observer
	backend  string
}

// Instrument wraps store so each call is reported to observer under backend.
// A nil observer returns store unchanged.
func Instrument(store Store, observer Observer, backend string) Store {
	if observer == nil {
		return store
	}
	return &instrumentedStore{next: store, observer: observer, backend: backend}
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	value, ok, err := s.next.Get(ctx, key)
	s.observer.ObserveStorageOperation(s.backend, "get", time.Since(start), err)
	return value, ok, err
}

func (s *instrumentedStore) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.next.Set(ctx, key, value)
	s.observer.ObserveStorageOperation(s.backend, "set", time.Since(start), err)
	return err
}

func (s *instrumentedStore) RemoveMany(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := s.next.RemoveMany(ctx, keys...)
	s.observer.ObserveStorageOperation(s.backend, "remove_many", time.Since(start), err)
	return err
}

type boundedStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every call on store by timeout. Zero or negative
// timeouts return store unchanged.
func WithTimeout(store Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return store
	}
	return &boundedStore{next: store, timeout: timeout}
}

func (s *boundedStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Get(ctx, key)
}

func (s *boundedStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Set(ctx, key, value)
}

func (s *boundedStore) RemoveMany(ctx context.Context, keys ...string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.RemoveMany(ctx, keys...)
}
