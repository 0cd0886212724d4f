package routes

import (
	"github.com/davidkariuki5/car_rental/handlers"
	"github.com/davidkariuki5/car_rental/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MessagingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	conversations := api.Group("/conversations", middleware.Protected())
	conversations.Get("", handlers.GetUserConversations)
	conversations.Post("", handlers.CreateOrGetConversation)
	conversations.Post("/:conversationId/messages", handlers.SendMessage)
	conversations.Post("/:conversationId/read", handlers.MarkMessagesRead)

	threads := api.Group("/threads", middleware.Protected())
	threads.Get("/:handle", handlers.GetThread)

	bookingMessages := api.Group("/bookings/:bookingId/messages", middleware.Protected())
	bookingMessages.Get("", handlers.GetBookingMessages)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}
