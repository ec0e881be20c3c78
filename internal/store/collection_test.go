package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type failingBackend struct {
	err error
}

func (b failingBackend) Load(context.Context, string) ([]byte, error) { return nil, b.err }
func (b failingBackend) Save(context.Context, string, []byte) error   { return b.err }

func TestCollection_SeedsOnFirstRead(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	coll := NewCollection(backend, "records", []record{{ID: 1, Name: "seed"}})

	require.Equal(t, []record{{ID: 1, Name: "seed"}}, coll.Read(ctx))

	data, err := backend.Load(ctx, "records")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":1,"name":"seed"}]`, string(data))
}

func TestCollection_RoundTrip(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection[record](NewMemoryBackend(), "records", nil)

	want := []record{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}}
	require.NoError(t, coll.Write(ctx, want))
	require.Equal(t, want, coll.Read(ctx))
	require.Equal(t, coll.Read(ctx), coll.Read(ctx))
}

func TestCollection_MalformedContentReadsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, "records", []byte("{not json")))

	coll := NewCollection(backend, "records", []record{{ID: 1}})
	require.Empty(t, coll.Read(ctx))
	require.NotNil(t, coll.Read(ctx))
}

func TestCollection_LoadFailureReadsEmpty(t *testing.T) {
	coll := NewCollection(failingBackend{err: errors.New("disk gone")}, "records", []record{{ID: 1}})
	require.Empty(t, coll.Read(context.Background()))
}

func TestCollection_WriteFailureIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	coll := NewCollection[record](failingBackend{err: boom}, "records", nil)
	err := coll.Write(context.Background(), []record{{ID: 1}})
	require.ErrorIs(t, err, boom)
}

func TestCollection_InitKeepsExistingData(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	coll := NewCollection(backend, "records", []record{{ID: 1, Name: "seed"}})

	require.NoError(t, coll.Write(ctx, []record{{ID: 9, Name: "kept"}}))
	require.NoError(t, coll.Init(ctx))
	require.Equal(t, []record{{ID: 9, Name: "kept"}}, coll.Read(ctx))
}

func TestCollection_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection[record](NewMemoryBackend(), "records", nil)
	require.NoError(t, coll.Init(ctx))

	first := coll.Read(ctx)
	second := coll.Read(ctx)

	require.NoError(t, coll.Write(ctx, append(first, record{ID: 1, Name: "first"})))
	require.NoError(t, coll.Write(ctx, append(second, record{ID: 1, Name: "second"})))

	require.Equal(t, []record{{ID: 1, Name: "second"}}, coll.Read(ctx))
}

func TestFileBackend_WritesPrettyJSON(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)

	_, err = backend.Load(ctx, "records")
	require.ErrorIs(t, err, ErrNotFound)

	coll := NewCollection[record](backend, "records", nil)
	require.NoError(t, coll.Write(ctx, []record{{ID: 1, Name: "a"}}))

	raw, err := os.ReadFile(filepath.Join(dir, "records.json"))
	require.NoError(t, err)
	require.Equal(t, "[\n  {\n    \"id\": 1,\n    \"name\": \"a\"\n  }\n]", string(raw))
}
