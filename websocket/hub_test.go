package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/davidkariuki5/car_rental/models"
	"github.com/davidkariuki5/car_rental/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var hubOnce sync.Once

func startHub() {
	hubOnce.Do(func() { go RunHub() })
}

func TestHubHandsEventOverOnChannel(t *testing.T) {
	startHub()

	receiver := uuid.New()
	client := &Client{UserID: receiver, Events: make(chan services.MessageEvent, 16)}
	Register <- client
	defer func() { Unregister <- client }()

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: uuid.New(),
		SenderID:       uuid.New(),
		ReceiverID:     receiver,
	}
	Broadcast <- msg

	// The hub must not touch the connection itself (Conn is nil here); the
	// event arrives on the channel for the connection goroutine to write.
	select {
	case ev := <-client.Events:
		assert.Equal(t, "message.sent", ev.Type)
		assert.Equal(t, msg.ID, ev.ID)
		assert.Equal(t, msg.ConversationID, ev.ConversationID)
		assert.Equal(t, msg.SenderID, ev.SenderID)
		assert.Equal(t, receiver, ev.ReceiverID)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered to the client channel")
	}
}

func TestHubDoesNotBlockOnSlowConsumer(t *testing.T) {
	startHub()

	slow := &Client{UserID: uuid.New(), Events: make(chan services.MessageEvent, 1)}
	Register <- slow
	defer func() { Unregister <- slow }()

	Broadcast <- &models.Message{ID: uuid.New(), ReceiverID: slow.UserID}
	Broadcast <- &models.Message{ID: uuid.New(), ReceiverID: slow.UserID}

	other := &Client{UserID: uuid.New(), Events: make(chan services.MessageEvent, 1)}
	Register <- other
	defer func() { Unregister <- other }()

	Broadcast <- &models.Message{ID: uuid.New(), ReceiverID: other.UserID}

	select {
	case <-other.Events:
	case <-time.After(time.Second):
		t.Fatal("hub stalled behind a client with a full channel")
	}
}
