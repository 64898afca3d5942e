package kvstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists each key as one file under a base directory.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore ensures the base directory exists and returns a handle.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.resolve(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes through a temp file and rename so readers never see a partial value.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.resolve(key)
	tmp, err := os.CreateTemp(s.baseDir, ".kv-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// RemoveMany implements Store.
func (s *FileStore) RemoveMany(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		if err := os.Remove(s.resolve(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// Path exposes the file backing key.
func (s *FileStore) Path(key string) string {
	return s.resolve(key)
}

func (s *FileStore) resolve(key string) string {
	return filepath.Join(s.baseDir, url.PathEscape(key)+".json")
}
