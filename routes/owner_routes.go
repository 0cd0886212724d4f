package routes

import (
	"github.com/davidkariuki5/car_rental/handlers"
	"github.com/davidkariuki5/car_rental/middleware"
	"github.com/gofiber/fiber/v2"
)

func OwnerRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	owner := api.Group("/owner", middleware.Protected())
	owner.Post("/apply", handlers.ApplyToBeAnOwner)

	profile := owner.Group("/profile", middleware.OwnerRequired())
	profile.Get("/me", handlers.GetMyOwnerProfile)
	profile.Put("/me", handlers.UpdateMyOwnerProfile)

	cars := owner.Group("/cars", middleware.OwnerRequired())
	cars.Post("", handlers.CreateCar)
	cars.Get("/me", handlers.GetMyCars)
	cars.Put("/:carId", handlers.UpdateMyCar)

	owner.Get("/earnings", middleware.OwnerRequired(), handlers.GetOwnerEarnings)

	payouts := owner.Group("/payouts", middleware.OwnerRequired())
	payouts.Post("/request", handlers.RequestPayout)
	payouts.Get("/requests", handlers.GetMyPayoutRequests)
}
