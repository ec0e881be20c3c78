package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/swiftcourier/trackingserver/config"
)

var (
	// ErrObjectNotFound is returned when a key does not exist in the backend.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that are empty or contain path elements.
	ErrInvalidKey = errors.New("invalid object key")
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Move(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API. Keys are flat
// file names; anything that looks like a path is rejected before reaching the
// backend.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// New builds the backend selected by cfg.Uploads.Backend.
func New(ctx context.Context, cfg config.Config) (*Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Uploads.Backend)) {
	case "", "local":
		backend, err := NewLocalStorage(cfg.Uploads.Dir)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	case "minio":
		backend, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	case "gcs":
		backend, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown uploads backend %q", cfg.Uploads.Backend)
	}
}

// ValidKey reports whether key is a plain file name.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return path.Base(key) == key && !strings.ContainsAny(key, `/\`)
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for an object in the configured bucket.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}
	return s.backend.Get(ctx, key)
}

// Move renames an object, replacing any object already stored at dstKey.
func (s *Storage) Move(ctx context.Context, srcKey, dstKey string) error {
	if !ValidKey(srcKey) || !ValidKey(dstKey) {
		return ErrInvalidKey
	}
	return s.backend.Move(ctx, srcKey, dstKey)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
