package handlers

import (
	"errors"
	"time"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OwnerApplicationRequest struct {
	Headline      string `json:"headline" validate:"required"`
	Bio           string `json:"bio" validate:"required"`
	IDDocumentURL string `json:"id_document_url" validate:"required,url"`
	LicenceURL    string `json:"licence_url" validate:"required,url"`
}

// ApplyToBeAnOwner starts owner onboarding. The application sits in pending
// until an admin verifies the submitted documents.
func ApplyToBeAnOwner(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req OwnerApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existingOwner models.Owner
	err := database.DB.Where("user_id = ?", userID).First(&existingOwner).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already submitted an application."})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	newApplication := models.Owner{
		UserID:        userID,
		Headline:      &req.Headline,
		Bio:           &req.Bio,
		IDDocumentURL: &req.IDDocumentURL,
		LicenceURL:    &req.LicenceURL,
	}

	if err := database.DB.Create(&newApplication).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create application"})
	}

	return c.Status(fiber.StatusCreated).JSON(newApplication)
}

func GetMyOwnerProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var owner models.Owner
	if err := database.DB.Preload("User").Where("user_id = ?", userID).First(&owner).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Owner profile not found"})
	}

	return c.JSON(owner)
}

type UpdateOwnerProfileRequest struct {
	Headline *string `json:"headline"`
	Bio      *string `json:"bio"`
}

func UpdateMyOwnerProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var owner models.Owner
	if err := database.DB.Where("user_id = ?", userID).First(&owner).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Owner profile not found"})
	}

	var req UpdateOwnerProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if req.Headline != nil {
		owner.Headline = req.Headline
	}
	if req.Bio != nil {
		owner.Bio = req.Bio
	}

	database.DB.Save(&owner)
	return c.JSON(owner)
}

func GetOwnerEarnings(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var owner models.Owner
	if err := database.DB.Where("user_id = ?", userID).First(&owner).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Owner profile not found"})
	}

	var lifetime float64
	database.DB.Model(&models.Booking{}).
		Where("owner_id = ? AND status = ?", userID, models.BookingStatusCompleted).
		Select("COALESCE(SUM(owner_payout), 0)").
		Row().Scan(&lifetime)

	var completedRentals int64
	database.DB.Model(&models.Booking{}).
		Where("owner_id = ? AND status = ?", userID, models.BookingStatusCompleted).
		Count(&completedRentals)

	return c.JSON(fiber.Map{
		"current_balance":   owner.CurrentBalance,
		"lifetime_earnings": lifetime,
		"completed_rentals": completedRentals,
	})
}

type PayoutRequestBody struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func RequestPayout(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req PayoutRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payout models.PayoutRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var owner models.Owner
		if err := tx.Where("user_id = ?", userID).First(&owner).Error; err != nil {
			return errors.New("owner profile not found")
		}
		if owner.CurrentBalance < req.Amount {
			return errors.New("requested amount exceeds your current balance")
		}

		owner.CurrentBalance -= req.Amount
		if err := tx.Save(&owner).Error; err != nil {
			return err
		}

		payout = models.PayoutRequest{
			OwnerID:     userID,
			Amount:      req.Amount,
			RequestedAt: time.Now(),
		}
		return tx.Create(&payout).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(payout)
}

func GetMyPayoutRequests(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var requests []models.PayoutRequest
	database.DB.Where("owner_id = ?", userID).Order("requested_at desc").Find(&requests)

	return c.JSON(requests)
}
