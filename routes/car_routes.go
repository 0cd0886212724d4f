package routes

import (
	"github.com/davidkariuki5/car_rental/handlers"
	"github.com/gofiber/fiber/v2"
)

func CarRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/cars", handlers.ListCars)
	api.Get("/cars/:carId", handlers.GetCar)
	api.Get("/cars/:carId/availability", handlers.CheckAvailability)
	api.Get("/cars/:carId/calculate-price", handlers.CalculatePrice)
	api.Get("/cars/:carId/reviews", handlers.ListCarReviews)
}
