package routes

import (
	"github.com/davidkariuki5/car_rental/handlers"
	"github.com/davidkariuki5/car_rental/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/applications/pending", handlers.ListPendingOwnerApplications)
	admin.Put("/applications/:ownerId", handlers.ManageOwnerApplication)

	cars := admin.Group("/cars")
	cars.Get("/pending", handlers.ListPendingCars)
	cars.Put("/:carId/moderate", handlers.ModerateCar)

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:userId/status", handlers.ToggleUserStatus)
	users.Delete("/:userId", handlers.AdminDeleteUser)

	admin.Get("/bookings", handlers.AdminGetAllBookings)
	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	admin.Get("/payout-requests", handlers.ListPayoutRequests)
	admin.Post("/payout-requests/:requestId/process", handlers.ProcessPayoutRequest)

	reports := admin.Group("/reports")
	reports.Get("/transactions", handlers.GenerateTransactionReport)
}
