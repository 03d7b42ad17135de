// Package blobstore stores the bytes of uploaded report files. Metadata lives
// in the report repositories; a Store only knows opaque paths.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrExists      = errors.New("blob already exists")
	ErrTooLarge    = errors.New("blob exceeds maximum allowed size")
	ErrInvalidPath = errors.New("blob path outside store")
	// ErrCleanup accompanies a failed Put whose partial blob could not be
	// discarded.
	ErrCleanup = errors.New("blob cleanup failed")
)

// Object describes a stored blob. Path is the value a caller persists to
// reach the blob again.
type Object struct {
	Path string
	Name string
	Size int64
}

// Store is implemented by the filesystem, MinIO and in-memory backends.
type Store interface {
	// Put writes r under name. It never overwrites an existing blob and
	// returns ErrTooLarge, leaving nothing behind, when r yields more than
	// maxSize bytes (maxSize <= 0 disables the check). If the partial blob
	// cannot be discarded the error also matches ErrCleanup.
	Put(ctx context.Context, name, contentType string, r io.Reader, maxSize int64) (*Object, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// Location names where blobs are kept, for logs and health output.
	Location() string
}

const maxBaseNameLength = 100

// StoredName builds a collision-free name: <unix-millis>-<32 hex>-<base>.
func StoredName(now time.Time, original string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	base := SanitizeName(original)
	if base == "" {
		return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), suffix, base)
}

// SanitizeName reduces a client-supplied file name to a safe base name made
// of letters, digits, '.', '-' and '_'.
func SanitizeName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return ""
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxBaseNameLength {
		out = out[len(out)-maxBaseNameLength:]
	}
	return out
}

// limitedCopy copies at most maxSize bytes from r to w and reports
// ErrTooLarge if r has more.
// withCleanup joins a failed discard of name onto the Put error err.
func withCleanup(err error, name string, cleanupErr error) error {
	if cleanupErr == nil {
		return err
	}
	return errors.Join(err, fmt.Errorf("%w: %s: %w", ErrCleanup, name, cleanupErr))
}

func limitedCopy(w io.Writer, r io.Reader, maxSize int64) (int64, error) {
	if maxSize <= 0 {
		return io.Copy(w, r)
	}
	n, err := io.Copy(w, io.LimitReader(r, maxSize+1))
	if err != nil {
		return n, err
	}
	if n > maxSize {
		return n, ErrTooLarge
	}
	return n, nil
}
