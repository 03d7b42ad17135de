package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore is a thread-safe Store for tests. Paths are "mem://<name>".
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Location() string { return "mem://" }

func (s *MemoryStore) Put(_ context.Context, name, _ string, r io.Reader, maxSize int64) (*Object, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	var buf bytes.Buffer
	n, err := limitedCopy(&buf, r, maxSize)
	if err != nil {
		return nil, err
	}

	path := "mem://" + name
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[path]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	}
	s.blobs[path] = buf.Bytes()
	return &Object{Path: path, Name: name, Size: n}, nil
}

func (s *MemoryStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[path]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, path)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[path]
	return ok, nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
