package types

import (
	"strings"
	"time"
)

// PackageStatus is the delivery state shown to customers tracking a package.
type PackageStatus string

const (
	StatusOnHold         PackageStatus = "On Hold"
	StatusInTransit      PackageStatus = "In Transit"
	StatusHeldByCustoms  PackageStatus = "Held by Customs"
	StatusOutForDelivery PackageStatus = "Out for Delivery"
	StatusDelivered      PackageStatus = "Delivered"
)

// PackageStatuses lists every status in lifecycle order.
var PackageStatuses = []PackageStatus{
	StatusOnHold,
	StatusInTransit,
	StatusHeldByCustoms,
	StatusOutForDelivery,
	StatusDelivered,
}

// Valid reports whether s is one of the known statuses.
func (s PackageStatus) Valid() bool {
	for _, known := range PackageStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Package is a shipment registered by an administrator and tracked publicly
// through its tracking number.
type Package struct {
	// ID is the unique identifier of the package, allocated as one more than
	// the highest existing id.
	ID int `json:"id"`

	// TrackingNumber is the 8-character [A-Z0-9] code customers use to look
	// the package up. It is unique among packages at creation time.
	TrackingNumber string `json:"trackingNumber"`

	// Status is the current delivery status.
	Status PackageStatus `json:"status"`

	// Sender is the party the package was collected from.
	Sender Party `json:"sender"`

	// Receiver is the party the package is addressed to.
	Receiver Party `json:"receiver"`

	// CurrentLocation is the last known position of the package.
	CurrentLocation Location `json:"currentLocation"`

	// PackageDetails describes the physical package.
	PackageDetails PackageDetails `json:"packageDetails"`

	// AdminNotes is free text visible to customers on the tracking page.
	AdminNotes string `json:"adminNotes"`

	// Photo is the stored image filename, derived from TrackingNumber and the
	// uploaded file's extension. Empty when no photo was uploaded.
	Photo string `json:"photo,omitempty"`

	// CreatedAt is the timestamp at which the package was registered.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp of the most recent modification.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Party is a sender or receiver.
type Party struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// Location is a street address with map coordinates.
type Location struct {
	Address string  `json:"address" validate:"required"`
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// PackageDetails holds the descriptive attributes of a package. Weight and
// height are free-form strings as entered by staff (e.g. "2.5 kg").
type PackageDetails struct {
	Type   string `json:"type" validate:"required"`
	Weight string `json:"weight" validate:"required"`
	Height string `json:"height" validate:"required"`
	Color  string `json:"color" validate:"required"`
}

// PackagePatch carries a partial package update. Nil fields are left
// untouched by the repository.
type PackagePatch struct {
	Status          *PackageStatus  `json:"status,omitempty" validate:"omitempty,package_status"`
	Sender          *Party          `json:"sender,omitempty"`
	Receiver        *Party          `json:"receiver,omitempty"`
	CurrentLocation *Location       `json:"currentLocation,omitempty"`
	PackageDetails  *PackageDetails `json:"packageDetails,omitempty"`
	AdminNotes      *string         `json:"adminNotes,omitempty"`
	Photo           *string         `json:"photo,omitempty"`
}

// Apply merges the non-nil fields of p into pkg and returns the result.
func (p PackagePatch) Apply(pkg Package) Package {
	if p.Status != nil {
		pkg.Status = *p.Status
	}
	if p.Sender != nil {
		pkg.Sender = *p.Sender
	}
	if p.Receiver != nil {
		pkg.Receiver = *p.Receiver
	}
	if p.CurrentLocation != nil {
		pkg.CurrentLocation = *p.CurrentLocation
	}
	if p.PackageDetails != nil {
		pkg.PackageDetails = *p.PackageDetails
	}
	if p.AdminNotes != nil {
		pkg.AdminNotes = *p.AdminNotes
	}
	if p.Photo != nil {
		pkg.Photo = *p.Photo
	}
	return pkg
}

// NewPackage is the validated payload for registering a package.
type NewPackage struct {
	Status          PackageStatus  `json:"status" validate:"package_status"`
	Sender          Party          `json:"sender"`
	Receiver        Party          `json:"receiver"`
	CurrentLocation Location       `json:"currentLocation"`
	PackageDetails  PackageDetails `json:"packageDetails"`
	AdminNotes      string         `json:"adminNotes"`
}

// NormalizeTrackingNumber upper-cases a customer-entered tracking number.
func NormalizeTrackingNumber(trackingNumber string) string {
	return strings.ToUpper(strings.TrimSpace(trackingNumber))
}
