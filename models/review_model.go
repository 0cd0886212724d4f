package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BookingID uuid.UUID `gorm:"not null;unique" json:"booking_id"`
	CarID     uuid.UUID `gorm:"not null" json:"car_id"`
	ClientID  uuid.UUID `gorm:"not null" json:"client_id"`
	OwnerID   uuid.UUID `gorm:"not null" json:"owner_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
