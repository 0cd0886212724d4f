package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/davidkariuki5/car_rental/notifications"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ListPendingOwnerApplications(c *fiber.Ctx) error {
	var pendingOwners []models.Owner
	if err := database.DB.Preload("User").Where("status = ?", "pending").Find(&pendingOwners).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(pendingOwners)
}

// ManageOwnerApplication verifies (or rejects) an owner's documents. Approval
// flips the user role so the owner-only routes open up.
func ManageOwnerApplication(c *fiber.Ctx) error {
	type MgtRequest struct {
		Status string `json:"status" validate:"required,oneof=active rejected"`
	}

	var req MgtRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ownerUserID := c.Params("ownerId")

	var ownerApp models.Owner
	if err := database.DB.Where("user_id = ?", ownerUserID).First(&ownerApp).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Application not found"})
	}

	var user models.User
	if err := database.DB.Where("id = ?", ownerUserID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Associated user not found"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		ownerApp.Status = req.Status
		if err := tx.Save(&ownerApp).Error; err != nil {
			return err
		}
		if req.Status == "active" {
			user.Role = "owner"
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update application status"})
	}

	switch req.Status {
	case "active":
		go notifications.SendEmail(
			user.FullName,
			user.Email,
			"Your Owner Application has been Approved!",
			"<h1>Congratulations!</h1><p>Your documents have been verified. You can now list your cars and start earning.</p>",
		)
	case "rejected":
		go notifications.SendEmail(
			user.FullName,
			user.Email,
			"Update on Your Owner Application",
			"<h1>Application Update</h1><p>We regret to inform you that after careful review, your owner application was not approved at this time.</p>",
		)
	}

	return c.JSON(fiber.Map{"message": "Application status updated successfully"})
}

func ListPendingCars(c *fiber.Ctx) error {
	var cars []models.Car
	if err := database.DB.Preload("Owner").Where("status = ?", models.CarStatusPending).Find(&cars).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(carViews(cars))
}

func ModerateCar(c *fiber.Ctx) error {
	type ModerationRequest struct {
		Status string `json:"status" validate:"required,oneof=approved rejected"`
	}

	var req ModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	carID := c.Params("carId")

	var car models.Car
	if err := database.DB.Preload("Owner").First(&car, "id = ?", carID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
	}

	car.Status = req.Status
	if err := database.DB.Save(&car).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update car status"})
	}

	if req.Status == models.CarStatusApproved {
		go notifications.SendEmail(car.Owner.FullName, car.Owner.Email, "Your Listing is Live!",
			fmt.Sprintf("<h1>Listing Approved</h1><p>Your %s %s is now visible to renters.</p>", car.Make, car.Model))
	} else {
		go notifications.SendEmail(car.Owner.FullName, car.Owner.Email, "Update on Your Listing",
			fmt.Sprintf("<h1>Listing Update</h1><p>Your %s %s was not approved. Please review our listing guidelines and resubmit.</p>", car.Make, car.Model))
	}

	return c.JSON(fiber.Map{"message": "Car moderation decision saved"})
}

func GetAllUsers(c *fiber.Ctx) error {
	var users []models.User
	database.DB.Order("created_at desc").Find(&users)
	return c.JSON(users)
}

func ToggleUserStatus(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	user.IsActive = !user.IsActive
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user status"})
	}

	return c.JSON(fiber.Map{"message": "User status updated", "is_active": user.IsActive})
}

func AdminDeleteUser(c *fiber.Ctx) error {
	userID := c.Params("userId")

	if err := database.DB.Delete(&models.User{}, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	return c.JSON(fiber.Map{"message": "User deleted"})
}

func AdminGetAllBookings(c *fiber.Ctx) error {
	var bookings []models.Booking
	database.DB.
		Preload("Car").
		Preload("Client").
		Preload("Owner").
		Order("created_at desc").
		Find(&bookings)
	return c.JSON(bookings)
}

type DashboardAnalyticsResponse struct {
	TotalClients       int64            `json:"total_clients"`
	TotalActiveOwners  int64            `json:"total_active_owners"`
	TotalApprovedCars  int64            `json:"total_approved_cars"`
	TotalRevenue       float64          `json:"total_revenue"`
	BookingsLast30Days int64            `json:"bookings_last_30_days"`
	RecentBookings     []models.Booking `json:"recent_bookings"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var response DashboardAnalyticsResponse
	var totalRevenue float64

	database.DB.Model(&models.User{}).Where("role = ?", "client").Count(&response.TotalClients)

	database.DB.Model(&models.Owner{}).Where("status = ?", "active").Count(&response.TotalActiveOwners)

	database.DB.Model(&models.Car{}).Where("status = ?", models.CarStatusApproved).Count(&response.TotalApprovedCars)

	// Platform revenue is the accumulated service fees on completed rentals.
	database.DB.Model(&models.Booking{}).
		Where("status = ?", models.BookingStatusCompleted).
		Select("COALESCE(SUM(service_fee), 0)").
		Row().Scan(&totalRevenue)
	response.TotalRevenue = totalRevenue

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&models.Booking{}).Where("created_at > ?", thirtyDaysAgo).Count(&response.BookingsLast30Days)

	database.DB.Order("created_at desc").Limit(5).Preload("Client").Preload("Owner").Find(&response.RecentBookings)

	return c.JSON(response)
}

func ListPayoutRequests(c *fiber.Ctx) error {
	var requests []models.PayoutRequest
	database.DB.Preload("Owner").Where("status = ?", "pending").Find(&requests)
	return c.JSON(requests)
}

func ProcessPayoutRequest(c *fiber.Ctx) error {
	requestID := c.Params("requestId")

	type ProcessRequest struct {
		Decision string  `json:"decision" validate:"required,oneof=approve reject"`
		Notes    *string `json:"notes"`
	}
	var req ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payout models.PayoutRequest
	if err := database.DB.Preload("Owner").First(&payout, "id = ?", requestID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
	}
	if payout.Status != "pending" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This payout request has already been processed"})
	}

	now := time.Now()
	payout.AdminNotes = req.Notes
	payout.ProcessedAt = &now

	if req.Decision == "approve" {
		payout.Status = "paid"
		if err := database.DB.Save(&payout).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payout"})
		}
		go notifications.SendEmail(payout.Owner.FullName, payout.Owner.Email, "Your Payout is on its Way",
			fmt.Sprintf("<h1>Payout Approved</h1><p>Your payout of %.2f has been approved and will arrive shortly.</p>", payout.Amount))
	} else {
		// Rejected funds go back to the owner's balance.
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			payout.Status = "rejected"
			if err := tx.Save(&payout).Error; err != nil {
				return err
			}
			return tx.Model(&models.Owner{}).
				Where("user_id = ?", payout.OwnerID).
				Update("current_balance", gorm.Expr("current_balance + ?", payout.Amount)).Error
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payout"})
		}
		go notifications.SendEmail(payout.Owner.FullName, payout.Owner.Email, "Update on Your Payout Request",
			"<h1>Payout Update</h1><p>Your payout request was not approved. The amount has been returned to your balance.</p>")
	}

	return c.JSON(fiber.Map{"message": "Payout request processed successfully"})
}

func GenerateTransactionReport(c *fiber.Ctx) error {
	startDateStr := c.Query("start_date", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	endDateStr := c.Query("end_date", time.Now().Format("2006-01-02"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date format. Use YYYY-MM-DD."})
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date format. Use YYYY-MM-DD."})
	}
	endDate = endDate.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	var bookings []models.Booking
	database.DB.
		Preload("Client").
		Preload("Car").
		Where("status = ? AND created_at BETWEEN ? AND ?", models.BookingStatusCompleted, startDate, endDate).
		Order("created_at desc").
		Find(&bookings)

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	headers := []string{"Reference", "Date", "Renter", "Car", "Base Amount", "Service Fee", "Total"}
	if err := w.Write(headers); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV header"})
	}

	for _, booking := range bookings {
		row := []string{
			booking.Reference,
			booking.CreatedAt.Format("2006-01-02 15:04"),
			booking.Client.FullName,
			fmt.Sprintf("%s %s %d", booking.Car.Make, booking.Car.Model, booking.Car.Year),
			fmt.Sprintf("%.2f", booking.OwnerPayout),
			fmt.Sprintf("%.2f", booking.ServiceFee),
			fmt.Sprintf("%.2f", booking.TotalPrice),
		}
		if err := w.Write(row); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV row"})
		}
	}
	w.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s_to_%s.csv\"", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	return c.Send(b.Bytes())
}
