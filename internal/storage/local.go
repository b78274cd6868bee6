package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs to a directory on the local filesystem
type LocalStore struct {
	dir string
}

// NewLocalStore creates a local blob store rooted at dir
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	// Keys are derived from uuids; reject anything that escapes the root
	if strings.Contains(key, "..") || strings.ContainsRune(key, os.PathSeparator) {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Put writes the blob, replacing any existing content
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Get reads a blob
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
