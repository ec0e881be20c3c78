package store

import (
	"context"
	"sync"

	"github.com/swiftcourier/trackingserver/types"
)

const usersCollection = "users"

// UserRepository handles persistence for users.
type UserRepository struct {
	mu    sync.Mutex
	users *Collection[types.User]
}

// NewUserRepository returns a repository over the users collection. seed is
// written the first time the collection is accessed.
func NewUserRepository(backend Backend, seed []types.User) *UserRepository {
	return &UserRepository{users: NewCollection(backend, usersCollection, seed)}
}

// Init writes the seed users if the collection does not exist.
func (r *UserRepository) Init(ctx context.Context) error {
	return r.users.Init(ctx)
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	for _, user := range r.users.Read(ctx) {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

// GetByUsername returns the first user with the given username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	for _, user := range r.users.Read(ctx) {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	return r.users.Read(ctx), nil
}

// Create appends user with the next free id. Usernames are not checked for
// uniqueness.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.users.Read(ctx)
	maxID := 0
	for _, existing := range users {
		maxID = max(maxID, existing.ID)
	}
	user.ID = maxID + 1

	if err := r.users.Write(ctx, append(users, user)); err != nil {
		return types.User{}, err
	}
	return user, nil
}
