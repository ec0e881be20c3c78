package mq

import (
	"context"
	"errors"
)

// ErrNoBroker is returned when subscribing without a configured broker.
var ErrNoBroker = errors.New("no message broker configured")

// Noop drops every published message.
type Noop struct{}

func (Noop) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

func (Noop) Subscribe(context.Context, string, Handler) error {
	return ErrNoBroker
}

func (Noop) Close() error {
	return nil
}
