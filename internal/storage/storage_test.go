package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swiftcourier/trackingserver/config"
)

func newLocal(t *testing.T) (*Storage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	backend, err := NewLocalStorage(dir)
	require.NoError(t, err)
	return NewStorage(backend), dir
}

func readAll(t *testing.T, s *Storage, key string) string {
	t.Helper()
	rc, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestLocalStorage_PutGetMove(t *testing.T) {
	ctx := context.Background()
	s, dir := newLocal(t)

	require.NoError(t, s.Put(ctx, "tmp-1", strings.NewReader("image bytes"), 11, "image/png"))
	require.Equal(t, "image bytes", readAll(t, s, "tmp-1"))

	require.NoError(t, s.Move(ctx, "tmp-1", "ABCD1234.png"))
	require.Equal(t, "image bytes", readAll(t, s, "ABCD1234.png"))

	_, err := s.Get(ctx, "tmp-1")
	require.ErrorIs(t, err, ErrObjectNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLocalStorage_MoveReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t)

	require.NoError(t, s.Put(ctx, "ABCD1234.png", strings.NewReader("old"), 3, ""))
	require.NoError(t, s.Put(ctx, "tmp-2", strings.NewReader("new"), 3, ""))
	require.NoError(t, s.Move(ctx, "tmp-2", "ABCD1234.png"))
	require.Equal(t, "new", readAll(t, s, "ABCD1234.png"))
}

func TestLocalStorage_DeleteMissing(t *testing.T) {
	s, _ := newLocal(t)
	require.ErrorIs(t, s.Delete(context.Background(), "nope.png"), ErrObjectNotFound)
}

func TestStorage_RejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t)

	for _, key := range []string{"", ".", "..", "../etc/passwd", "a/b.png", `a\b.png`} {
		_, err := s.Get(ctx, key)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}
	require.ErrorIs(t, s.Move(ctx, "ok.png", "../escape.png"), ErrInvalidKey)
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := config.Config{Uploads: config.UploadsConfig{Backend: "local", Dir: t.TempDir()}}
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, cfg.Uploads.Dir, s.Bucket())

	cfg.Uploads.Backend = "floppy"
	_, err = New(context.Background(), cfg)
	require.Error(t, err)

	cfg.Uploads.Backend = "minio"
	_, err = New(context.Background(), cfg)
	require.Error(t, err)
}
