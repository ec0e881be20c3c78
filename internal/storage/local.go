package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage keeps objects as files in a single directory.
type LocalStorage struct {
	dir string
}

// NewLocalStorage returns a backend rooted at dir, creating it if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, errors.New("uploads dir is required")
	}
	l := &LocalStorage{dir: dir}
	if err := l.EnsureBucket(context.Background()); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LocalStorage) EnsureBucket(_ context.Context) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	return nil
}

// Put writes r to a temporary file in the same directory and renames it into
// place once fully written.
func (l *LocalStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, l.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (l *LocalStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

func (l *LocalStorage) Move(_ context.Context, srcKey, dstKey string) error {
	err := os.Rename(l.path(srcKey), l.path(dstKey))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	return err
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}
	return err
}

// Bucket returns the uploads directory.
func (l *LocalStorage) Bucket() string {
	return l.dir
}

func (l *LocalStorage) path(key string) string {
	return filepath.Join(l.dir, key)
}
