package services

import (
	"context"
	"errors"
	"time"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DBMessageSource backs the thread engine with the application database.
type DBMessageSource struct{}

func NewDBMessageSource() *DBMessageSource {
	return &DBMessageSource{}
}

func (s *DBMessageSource) Conversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := database.DB.WithContext(ctx).
		Preload("Participants").
		First(&conv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (s *DBMessageSource) UserConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var user models.User
	err := database.DB.WithContext(ctx).
		Preload("Conversations.Participants").
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	conversations := make([]models.Conversation, 0, len(user.Conversations))
	for _, c := range user.Conversations {
		conversations = append(conversations, *c)
	}
	return conversations, nil
}

func (s *DBMessageSource) ConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := database.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *DBMessageSource) BookingMessages(ctx context.Context, bookingID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := database.DB.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *DBMessageSource) BookingParties(ctx context.Context, bookingID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	var booking models.Booking
	err := database.DB.WithContext(ctx).
		Select("client_id", "owner_id").
		First(&booking, "id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, uuid.Nil, ErrNotFound
		}
		return uuid.Nil, uuid.Nil, err
	}
	return booking.ClientID, booking.OwnerID, nil
}

func (s *DBMessageSource) MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return database.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND id IN ? AND read_at IS NULL", conversationID, ids).
		Update("read_at", now).Error
}
