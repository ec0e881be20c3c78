package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostgresBackend_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT data FROM collections WHERE name = \$1`).
		WithArgs("packages").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`[]`)))

	backend := NewPostgresBackend(db)
	data, err := backend.Load(context.Background(), "packages")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(data))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_LoadMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT data FROM collections`).
		WithArgs("users").
		WillReturnError(sql.ErrNoRows)

	_, err = NewPostgresBackend(db).Load(context.Background(), "users")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_SaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO collections .* ON CONFLICT \(name\) DO UPDATE`).
		WithArgs("contacts", []byte(`[{"id":1}]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresBackend(db).Save(context.Background(), "contacts", []byte(`[{"id":1}]`))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
