package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	config "github.com/davidkariuki5/car_rental/configs"
	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/davidkariuki5/car_rental/services"
	"github.com/davidkariuki5/car_rental/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// threadService owns the read-marking in-flight set; one instance per process.
var threadService = services.NewThreadService(services.NewDBMessageSource())

const threadPollInterval = 5 * time.Second

func GetUserConversations(c *fiber.Ctx) error {
	userID := currentUserID(c)
	limit, offset := pageParams(c)

	var conversations []models.Conversation
	err := database.DB.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id AND cp.user_id = ?", userID).
		Preload("Participants").
		Order("conversations.updated_at desc").
		Limit(limit).
		Offset(offset).
		Find(&conversations).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch conversations"})
	}

	return c.JSON(conversations)
}

// GetThread returns the merged timeline for a handle. The handle is either a
// conversation id or "booking:<id>"; when several conversations exist with the
// same counterparty their messages come back as one ordered sequence.
func GetThread(c *fiber.Ctx) error {
	userID := currentUserID(c)
	handle := c.Params("handle")

	thread, err := threadService.LoadThread(c.UserContext(), userID, handle)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(thread)
}

// GetBookingMessages serves the thread attached to a specific booking.
func GetBookingMessages(c *fiber.Ctx) error {
	userID := currentUserID(c)
	bookingID := c.Params("bookingId")

	thread, err := threadService.LoadThread(c.UserContext(), userID, services.BookingHandlePrefix+bookingID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(thread)
}

type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1,dive,uuid"`
}

func MarkMessagesRead(c *fiber.Ctx) error {
	userID := currentUserID(c)
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	var req MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ids := make([]uuid.UUID, 0, len(req.MessageIDs))
	for _, raw := range req.MessageIDs {
		id, _ := uuid.Parse(raw)
		ids = append(ids, id)
	}

	if err := threadService.MarkAsRead(c.UserContext(), userID, conversationID, ids); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func CreateOrGetConversation(c *fiber.Ctx) error {
	userID := currentUserID(c)

	type Request struct {
		RecipientID string `json:"recipient_id" validate:"required,uuid"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	recipientID, _ := uuid.Parse(req.RecipientID)

	conv, err := findOrCreatePairConversation(database.DB, userID, recipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Recipient not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create conversation"})
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

// findOrCreatePairConversation reuses the first existing 1:1 conversation
// between two users. More than one may exist as an artifact of older flows;
// the thread engine merges them on read, so any of them is a valid anchor.
func findOrCreatePairConversation(db *gorm.DB, userID1, userID2 uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := db.
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = conversations.id AND cp1.user_id = ?", userID1).
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = conversations.id AND cp2.user_id = ?", userID2).
		Where("conversations.is_group = ?", false).
		First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}

	var user1, user2 models.User
	if err := db.First(&user1, "id = ?", userID1).Error; err != nil {
		return nil, err
	}
	if err := db.First(&user2, "id = ?", userID2).Error; err != nil {
		return nil, err
	}
	newConversation := models.Conversation{Participants: []*models.User{&user1, &user2}}
	if err := db.Create(&newConversation).Error; err != nil {
		return nil, err
	}
	return &newConversation, nil
}

type SendMessageRequest struct {
	Content   string  `json:"content" validate:"required"`
	BookingID *string `json:"booking_id,omitempty" validate:"omitempty,uuid"`
}

// SendMessage is the REST fallback for clients without a socket.
func SendMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	message, err := storeMessage(userID, conversationID, req.Content, req.BookingID)
	if err != nil {
		return respondServiceError(c, err)
	}

	websocket.Broadcast <- message
	return c.Status(fiber.StatusCreated).JSON(message)
}

func storeMessage(senderID, conversationID uuid.UUID, content string, bookingIDStr *string) (*models.Message, error) {
	var conv models.Conversation
	if err := database.DB.Preload("Participants").First(&conv, "id = ?", conversationID).Error; err != nil {
		return nil, services.ErrNotFound
	}
	if !conv.HasParticipant(senderID) {
		return nil, services.ErrNotFound
	}
	receiverID, ok := conv.CounterpartyOf(senderID)
	if !ok {
		return nil, services.ErrNotFound
	}

	var bookingID *uuid.UUID
	if bookingIDStr != nil {
		id, err := uuid.Parse(*bookingIDStr)
		if err != nil {
			return nil, services.NewValidationError("booking_id", "must be a uuid")
		}
		bookingID = &id
	}

	message := models.Message{
		ConversationID: conversationID,
		BookingID:      bookingID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

type wsInbound struct {
	Type           string   `json:"type"`
	Token          string   `json:"token,omitempty"`
	Handle         string   `json:"handle,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
	BookingID      *string  `json:"booking_id,omitempty"`
	Content        string   `json:"content,omitempty"`
	MessageIDs     []string `json:"message_ids,omitempty"`
}

// ServeWs is the push channel. After auth the client may subscribe to a
// thread handle; the server then keeps the merged thread fresh from both a
// poll ticker and message.sent events, pushing "thread" frames on change.
func ServeWs(c *websocketcontrib.Conn) {
	var authMsg wsInbound
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}
	userID, err := uuid.Parse(claims["user_id"].(string))
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	var writeMu sync.Mutex
	writeJSON := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := c.WriteJSON(v); err != nil {
			log.Printf("WebSocket write error for client %s: %v", userID, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := services.NewThreadWatcher(threadService, userID,
		func(thread *services.Thread) {
			writeJSON(fiber.Map{"type": "thread", "thread": thread})
		},
		func(err error) {
			log.Printf("Thread refresh failed for client %s: %v", userID, err)
		},
	)
	defer watcher.Close()
	go watcher.Run(ctx, threadPollInterval)

	client := &websocket.Client{
		UserID: userID,
		Conn:   c,
		Events: make(chan services.MessageEvent, 16),
	}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	// All socket writes funnel through writeJSON; the hub only hands events
	// over on the channel, so this goroutine is the sole forwarder.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-client.Events:
				writeJSON(ev)
				watcher.HandleEvent(ctx, ev)
			}
		}
	}()

	for {
		var msg wsInbound
		if err := c.ReadJSON(&msg); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for client %s: %v", userID, err)
			} else {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			break
		}

		switch msg.Type {
		case "subscribe":
			watcher.Open(ctx, msg.Handle)
		case "message":
			convID, err := uuid.Parse(msg.ConversationID)
			if err != nil {
				writeJSON(fiber.Map{"error": "Invalid conversation ID"})
				continue
			}
			message, err := storeMessage(userID, convID, msg.Content, msg.BookingID)
			if err != nil {
				writeJSON(fiber.Map{"error": "Failed to save message"})
				continue
			}
			websocket.Broadcast <- message
			// The sender's own view refreshes through the poll path.
			watcher.Invalidate(ctx)
		case "mark_read":
			convID, err := uuid.Parse(msg.ConversationID)
			if err != nil {
				writeJSON(fiber.Map{"error": "Invalid conversation ID"})
				continue
			}
			ids := make([]uuid.UUID, 0, len(msg.MessageIDs))
			for _, raw := range msg.MessageIDs {
				if id, err := uuid.Parse(raw); err == nil {
					ids = append(ids, id)
				}
			}
			if err := threadService.MarkAsRead(ctx, userID, convID, ids); err != nil {
				log.Printf("mark_read failed for client %s: %v", userID, err)
			}
		default:
			writeJSON(fiber.Map{"error": fmt.Sprintf("Unknown message type %q", msg.Type)})
		}
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
