package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs as files in a single directory. Paths handed out are
// absolute file paths.
type FSStore struct {
	root string
}

// NewFSStore creates dir if necessary and returns a store rooted at it.
func NewFSStore(dir string) (*FSStore, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("blobstore: make %q absolute: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create %q: %w", root, err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Location() string { return s.root }

func (s *FSStore) Put(_ context.Context, name, _ string, r io.Reader, maxSize int64) (*Object, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	full := filepath.Join(s.root, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore: create %s: %w", name, err)
	}

	n, err := limitedCopy(f, r, maxSize)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		var rmErr error
		if e := os.Remove(full); e != nil && !errors.Is(e, os.ErrNotExist) {
			rmErr = e
		}
		if !errors.Is(err, ErrTooLarge) {
			err = fmt.Errorf("blobstore: write %s: %w", name, err)
		}
		return nil, withCleanup(err, full, rmErr)
	}

	return &Object{Path: full, Name: name, Size: n}, nil
}

func (s *FSStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore: open: %w", err)
	}
	return f, nil
}

func (s *FSStore) Remove(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("blobstore: remove: %w", err)
	}
	return nil
}

func (s *FSStore) Exists(_ context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("blobstore: stat: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// resolve accepts either an absolute path inside the root or a bare name and
// rejects anything that escapes the root.
func (s *FSStore) resolve(path string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.root, full)
	}
	full = filepath.Clean(full)
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return full, nil
}
