package routes

import (
	"github.com/davidkariuki5/car_rental/handlers"
	"github.com/davidkariuki5/car_rental/middleware"
	"github.com/gofiber/fiber/v2"
)

func SubscriptionRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/subscriptions/plans", handlers.ListPlans)

	subs := api.Group("/owner/subscription", middleware.Protected(), middleware.OwnerRequired())
	subs.Get("", handlers.GetMySubscription)
	subs.Post("", handlers.Subscribe)
	subs.Delete("", handlers.CancelSubscription)
}
