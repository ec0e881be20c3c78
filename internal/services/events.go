package services

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/swiftcourier/trackingserver/internal/mq"
	"github.com/swiftcourier/trackingserver/types"
)

const (
	PackagesChannel = "packages.events"
	ContactsChannel = "contacts.events"
)

const (
	EventPackageCreated = "package.created"
	EventPackageUpdated = "package.updated"
	EventPackageDeleted = "package.deleted"
	EventContactCreated = "contact.created"
)

// Event is the payload published after a successful mutation.
type Event struct {
	Type           string              `json:"type"`
	ID             int                 `json:"id"`
	TrackingNumber string              `json:"trackingNumber,omitempty"`
	Status         types.PackageStatus `json:"status,omitempty"`
	At             time.Time           `json:"at"`
}

// Publisher is the subset of mq.MQ used to emit events.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// EventPublisher emits domain events. Failures are logged and never reach the
// caller. A nil *EventPublisher drops everything.
type EventPublisher struct {
	pub Publisher
	now func() time.Time
}

func NewEventPublisher(pub Publisher) *EventPublisher {
	return &EventPublisher{pub: pub, now: time.Now}
}

func (p *EventPublisher) packageEvent(ctx context.Context, eventType string, pkg types.Package) {
	p.emit(ctx, PackagesChannel, Event{
		Type:           eventType,
		ID:             pkg.ID,
		TrackingNumber: pkg.TrackingNumber,
		Status:         pkg.Status,
	})
}

func (p *EventPublisher) contactEvent(ctx context.Context, contact types.Contact) {
	p.emit(ctx, ContactsChannel, Event{Type: EventContactCreated, ID: contact.ID})
}

func (p *EventPublisher) emit(ctx context.Context, channel string, event Event) {
	if p == nil || p.pub == nil {
		return
	}
	event.At = p.now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("event", event.Type).Error("failed to encode event")
		return
	}
	attrs := map[string]string{
		mq.AttrContentType: "application/json",
		mq.AttrEventType:   event.Type,
	}
	if event.TrackingNumber != "" {
		attrs[mq.AttrOrderingKey] = event.TrackingNumber
	}
	if _, err := p.pub.Publish(ctx, channel, data, attrs); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"channel": channel,
			"event":   event.Type,
			"id":      event.ID,
		}).Warn("failed to publish event")
	}
}
