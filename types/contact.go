package types

import "time"

// Contact is a message submitted through the public contact form. Contacts
// are append-only.
type Contact struct {
	ID              int       `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	ServiceInterest string    `json:"serviceInterest"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewContact is the validated contact form payload.
type NewContact struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	ServiceInterest string `json:"serviceInterest" validate:"required"`
	Message         string `json:"message" validate:"required"`
}
