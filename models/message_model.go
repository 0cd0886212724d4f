package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ConversationID uuid.UUID  `gorm:"not null" json:"conversation_id"`
	BookingID      *uuid.UUID `json:"booking_id,omitempty"`
	SenderID       uuid.UUID  `gorm:"not null" json:"sender_id"`
	ReceiverID     uuid.UUID  `gorm:"not null" json:"receiver_id"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	ReadAt         *time.Time `json:"read_at"`

	Sender       User         `gorm:"foreignkey:SenderID" json:"sender,omitempty"`
	Conversation Conversation `gorm:"foreignkey:ConversationID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}
