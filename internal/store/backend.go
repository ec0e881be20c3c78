package store

import "context"

// Backend persists whole collections as JSON documents. Load returns
// ErrNotFound when the collection has never been written.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
}
