package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Collection is a named JSON array of records held by a Backend. Every
// operation reads or replaces the whole array.
type Collection[T any] struct {
	backend Backend
	name    string
	seed    []T
}

// NewCollection binds a collection name and its first-access seed to a backend.
func NewCollection[T any](backend Backend, name string, seed []T) *Collection[T] {
	if seed == nil {
		seed = []T{}
	}
	return &Collection[T]{backend: backend, name: name, seed: seed}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Read returns every record in the collection. A collection that was never
// written is initialized with the seed. Unreadable or malformed content reads
// as empty; the failure is logged and not returned.
func (c *Collection[T]) Read(ctx context.Context) []T {
	data, err := c.backend.Load(ctx, c.name)
	if errors.Is(err, ErrNotFound) {
		if err := c.Write(ctx, c.seed); err != nil {
			log.WithError(err).WithField("collection", c.name).Error("failed to seed collection")
		}
		return clone(c.seed)
	}
	if err != nil {
		log.WithError(err).WithField("collection", c.name).Warn("failed to load collection, treating as empty")
		return []T{}
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		log.WithError(err).WithField("collection", c.name).Warn("malformed collection, treating as empty")
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}

// Write replaces the whole collection with records.
func (c *Collection[T]) Write(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.backend.Save(ctx, c.name, data); err != nil {
		return fmt.Errorf("save %s: %w", c.name, err)
	}
	return nil
}

// Init writes the seed if the collection does not exist yet.
func (c *Collection[T]) Init(ctx context.Context) error {
	_, err := c.backend.Load(ctx, c.name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("load %s: %w", c.name, err)
	}
	return c.Write(ctx, c.seed)
}

func clone[T any](records []T) []T {
	out := make([]T, len(records))
	copy(out, records)
	return out
}
