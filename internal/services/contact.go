package services

import (
	"context"

	"github.com/swiftcourier/trackingserver/types"
)

// ContactRepository defines persistence operations for contacts.
type ContactRepository interface {
	Create(ctx context.Context, input types.NewContact) (types.Contact, error)
	List(ctx context.Context) ([]types.Contact, error)
}

// ContactService records contact form submissions.
type ContactService struct {
	repo   ContactRepository
	events *EventPublisher
}

func NewContactService(repo ContactRepository, events *EventPublisher) *ContactService {
	return &ContactService{repo: repo, events: events}
}

// Submit stores an already validated submission.
func (s *ContactService) Submit(ctx context.Context, input types.NewContact) (types.Contact, error) {
	contact, err := s.repo.Create(ctx, input)
	if err != nil {
		return types.Contact{}, err
	}
	s.events.contactEvent(ctx, contact)
	return contact, nil
}

func (s *ContactService) List(ctx context.Context) ([]types.Contact, error) {
	return s.repo.List(ctx)
}
