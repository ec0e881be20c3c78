package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresBackend stores each collection as one JSONB row of the
// collections table.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Load(ctx context.Context, name string) ([]byte, error) {
	const query = `SELECT data FROM collections WHERE name = $1`
	var data []byte
	if err := b.db.QueryRowContext(ctx, query, name).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *PostgresBackend) Save(ctx context.Context, name string, data []byte) error {
	const query = `
		INSERT INTO collections (name, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`
	_, err := b.db.ExecContext(ctx, query, name, data, time.Now())
	return err
}
