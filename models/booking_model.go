package models

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Reference string    `gorm:"size:12;unique" json:"reference"`
	CarID     uuid.UUID `gorm:"not null" json:"car_id"`
	ClientID  uuid.UUID `gorm:"not null" json:"client_id"`
	OwnerID   uuid.UUID `gorm:"not null" json:"owner_id"`

	StartDate time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null" json:"end_date"`
	Status    string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	TotalPrice  float64 `gorm:"type:numeric(10,2);not null" json:"total_price"`
	ServiceFee  float64 `gorm:"type:numeric(10,2);not null" json:"service_fee"`
	OwnerPayout float64 `gorm:"type:numeric(10,2);not null" json:"owner_payout"`

	AgreementURL *string `gorm:"size:255" json:"agreement_url"`

	Car    Car  `gorm:"foreignkey:CarID" json:"car,omitempty"`
	Client User `gorm:"foreignkey:ClientID" json:"client,omitempty"`
	Owner  User `gorm:"foreignkey:OwnerID" json:"owner,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusActive    = "active"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusRejected  = "rejected"
)

// bookingTransitions is the whole lifecycle: pending is decided by the owner,
// confirmed bookings run to completion, and the client may cancel anything
// that has not reached a terminal state.
var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusActive, BookingStatusCancelled},
	BookingStatusActive:    {BookingStatusCompleted, BookingStatusCancelled},
}

func CanTransitionBooking(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalBookingStatus(status string) bool {
	return status == BookingStatusCompleted ||
		status == BookingStatusCancelled ||
		status == BookingStatusRejected
}

// BlocksAvailability reports whether a booking in this status holds its date
// range against new requests.
func BlocksAvailability(status string) bool {
	return status == BookingStatusConfirmed || status == BookingStatusActive
}
