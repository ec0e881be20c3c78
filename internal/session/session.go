// Package session keeps server-side admin sessions referenced from a signed
// cookie.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when the session id is unknown or the
// session has expired.
var ErrNotFound = errors.New("session not found")

// ErrNoSession is returned by Resolve when the request carries no valid
// session.
var ErrNoSession = errors.New("no session")

// Session is the server-held state of a logged-in user.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"userId"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions by id.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
