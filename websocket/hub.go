package websocket

import (
	"log"
	"sync"

	"github.com/davidkariuki5/car_rental/models"
	"github.com/davidkariuki5/car_rental/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is one connected user. Events carries message.sent notifications to
// the connection's own goroutine, which writes the frame to the socket and
// feeds the thread watcher. The hub never writes to Conn itself; each
// connection has exactly one writer.
type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Events chan services.MessageEvent
}

var clients = make(map[uuid.UUID]*Client)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Broadcast = make(chan *models.Message)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if existing, ok := clients[client.UserID]; ok && existing.Conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case message := <-Broadcast:
			ev := services.MessageEvent{
				Type:           "message.sent",
				ID:             message.ID,
				ConversationID: message.ConversationID,
				SenderID:       message.SenderID,
				ReceiverID:     message.ReceiverID,
			}
			deliver(message.ReceiverID, ev)
		}
	}
}

func deliver(userID uuid.UUID, ev services.MessageEvent) {
	clientsMu.RLock()
	client, ok := clients[userID]
	clientsMu.RUnlock()
	if !ok {
		return
	}

	// Never block the hub on a slow consumer; the poll channel will catch
	// anything dropped here.
	select {
	case client.Events <- ev:
	default:
	}
}
