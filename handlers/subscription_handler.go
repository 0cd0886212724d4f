package handlers

import (
	"errors"
	"time"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/davidkariuki5/car_rental/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ListPlans is public: tiers with their commission rates so owners can
// compare before subscribing.
func ListPlans(c *fiber.Ctx) error {
	type plan struct {
		Tier           string  `json:"tier"`
		CommissionRate float64 `json:"commission_rate"`
	}
	return c.JSON([]plan{
		{Tier: models.TierBasic, CommissionRate: services.CommissionRate(models.TierBasic)},
		{Tier: models.TierStandard, CommissionRate: services.CommissionRate(models.TierStandard)},
		{Tier: models.TierPremium, CommissionRate: services.CommissionRate(models.TierPremium)},
	})
}

func GetMySubscription(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var sub models.Subscription
	if err := database.DB.Where("owner_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No row means the fail-safe basic tier.
			return c.JSON(fiber.Map{
				"tier":            models.TierBasic,
				"billing_period":  models.BillingMonthly,
				"status":          "none",
				"commission_rate": services.CommissionRate(models.TierBasic),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{
		"subscription":    sub,
		"commission_rate": services.CommissionRate(sub.Tier),
	})
}

type SubscribeRequest struct {
	Tier          string `json:"tier" validate:"required,oneof=basic standard premium"`
	BillingPeriod string `json:"billing_period" validate:"required,oneof=monthly yearly"`
}

// Subscribe creates or switches the owner's subscription. The new commission
// rate applies to bookings priced after the change, never retroactively.
func Subscribe(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	period := time.Hour * 24 * 30
	if req.BillingPeriod == models.BillingYearly {
		period = time.Hour * 24 * 365
	}
	renewsAt := time.Now().Add(period)

	var sub models.Subscription
	err := database.DB.Where("owner_id = ?", userID).First(&sub).Error
	switch {
	case err == nil:
		sub.Tier = req.Tier
		sub.BillingPeriod = req.BillingPeriod
		sub.Status = "active"
		sub.RenewsAt = &renewsAt
		if err := database.DB.Save(&sub).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update subscription"})
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.Subscription{
			OwnerID:       userID,
			Tier:          req.Tier,
			BillingPeriod: req.BillingPeriod,
			Status:        "active",
			RenewsAt:      &renewsAt,
		}
		if err := database.DB.Create(&sub).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create subscription"})
		}
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(sub)
}

func CancelSubscription(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var sub models.Subscription
	if err := database.DB.Where("owner_id = ?", userID).First(&sub).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No subscription found"})
	}

	sub.Status = "cancelled"
	if err := database.DB.Save(&sub).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel subscription"})
	}

	return c.JSON(fiber.Map{"message": "Subscription cancelled. Commission reverts to the basic rate."})
}
