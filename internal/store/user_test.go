package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/swiftcourier/trackingserver/types"
)

func TestUserRepository_SeedAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryBackend(), []types.User{{ID: 1, Username: "admin", Password: "hash"}})
	require.NoError(t, repo.Init(ctx))

	user, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, 1, user.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_CreateAllowsDuplicateUsernames(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryBackend(), []types.User{{ID: 1, Username: "admin", Password: "first"}})

	created, err := repo.Create(ctx, types.User{Username: "admin", Password: "second"})
	require.NoError(t, err)
	require.Equal(t, 2, created.ID)

	user, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, "first", user.Password)
}

func TestContactRepository_Append(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	repo := NewContactRepository(NewMemoryBackend(), WithClock(fixedClock(at)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	input := types.NewContact{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Phone: "555", ServiceInterest: "express", Message: "hi"}
	first, err := repo.Create(ctx, input)
	require.NoError(t, err)
	second, err := repo.Create(ctx, input)
	require.NoError(t, err)

	require.Equal(t, 1, first.ID)
	require.Equal(t, 2, second.ID)
	require.True(t, first.CreatedAt.Equal(at))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
