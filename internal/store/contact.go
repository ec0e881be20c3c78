package store

import (
	"context"
	"sync"

	"github.com/swiftcourier/trackingserver/types"
)

const contactsCollection = "contacts"

// ContactRepository appends and lists contact form submissions.
type ContactRepository struct {
	mu       sync.Mutex
	contacts *Collection[types.Contact]
	opts     options
}

func NewContactRepository(backend Backend, opts ...Option) *ContactRepository {
	return &ContactRepository{
		contacts: NewCollection[types.Contact](backend, contactsCollection, nil),
		opts:     newOptions(opts),
	}
}

func (r *ContactRepository) Init(ctx context.Context) error {
	return r.contacts.Init(ctx)
}

func (r *ContactRepository) Create(ctx context.Context, input types.NewContact) (types.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contacts := r.contacts.Read(ctx)
	maxID := 0
	for _, existing := range contacts {
		maxID = max(maxID, existing.ID)
	}

	contact := types.Contact{
		ID:              maxID + 1,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		Phone:           input.Phone,
		ServiceInterest: input.ServiceInterest,
		Message:         input.Message,
		CreatedAt:       r.opts.timestamp(),
	}
	if err := r.contacts.Write(ctx, append(contacts, contact)); err != nil {
		return types.Contact{}, err
	}
	return contact, nil
}

func (r *ContactRepository) List(ctx context.Context) ([]types.Contact, error) {
	return r.contacts.Read(ctx), nil
}
