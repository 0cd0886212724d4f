package handlers

import (
	"errors"
	"fmt"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/davidkariuki5/car_rental/notifications"
	"github.com/davidkariuki5/car_rental/services"
	"github.com/davidkariuki5/car_rental/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateBookingRequest struct {
	CarID     string `json:"car_id" validate:"required,uuid"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Message   string `json:"message,omitempty"`
}

// CreateBooking creates a pending booking. Availability is re-validated
// inside the transaction with the car row locked: the client may have seen
// the range as free minutes ago, and whoever commits first wins. The loser
// gets a 409 so the UI can re-offer date selection.
func CreateBooking(c *fiber.Ctx) error {
	clientID := currentUserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	carID, _ := uuid.Parse(req.CarID)

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return respondServiceError(c, err)
	}

	var car models.Car
	if err := database.DB.First(&car, "id = ?", carID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
	}
	if car.Status != models.CarStatusApproved {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
	}
	if car.OwnerID == clientID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot book your own car"})
	}

	quote, err := services.QuoteForRange(car.PricePerDay, start, end, services.OwnerTier(car.OwnerID))
	if err != nil {
		return respondServiceError(c, err)
	}

	var booking models.Booking
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// Serialize per-car booking writes so the overlap re-check and the
		// insert are atomic.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&car, "id = ?", carID).Error; err != nil {
			return err
		}

		available, err := services.CheckCarAvailabilityTx(tx, carID, start, end)
		if err != nil {
			return err
		}
		if !available {
			return services.ErrConflict
		}

		reference, err := utils.GenerateBookingReference(tx)
		if err != nil {
			return err
		}

		booking = models.Booking{
			Reference:   reference,
			CarID:       carID,
			ClientID:    clientID,
			OwnerID:     car.OwnerID,
			StartDate:   start,
			EndDate:     end,
			Status:      models.BookingStatusPending,
			TotalPrice:  quote.TotalPrice,
			ServiceFee:  quote.ServiceFee,
			OwnerPayout: quote.OwnerPayout,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		if req.Message != "" {
			if err := attachBookingMessage(tx, &booking, clientID, req.Message); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			return respondServiceError(c, err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create booking"})
	}

	go func() {
		var owner models.User
		if err := database.DB.First(&owner, "id = ?", booking.OwnerID).Error; err == nil {
			notifications.SendEmail(owner.FullName, owner.Email, "New Booking Request",
				fmt.Sprintf("<h1>New Booking Request</h1><p>You have a new rental request (%s) for %s to %s. Log in to confirm or reject it.</p>",
					booking.Reference, booking.StartDate.Format(dateLayout), booking.EndDate.Format(dateLayout)))
		}
	}()

	return c.Status(fiber.StatusCreated).JSON(booking)
}

// attachBookingMessage stores the client's note as the first message of the
// booking thread, reusing (or creating) the 1:1 conversation with the owner.
func attachBookingMessage(tx *gorm.DB, booking *models.Booking, senderID uuid.UUID, content string) error {
	conv, err := findOrCreatePairConversation(tx, senderID, booking.OwnerID)
	if err != nil {
		return err
	}
	message := models.Message{
		ConversationID: conv.ID,
		BookingID:      &booking.ID,
		SenderID:       senderID,
		ReceiverID:     booking.OwnerID,
		Content:        content,
	}
	return tx.Create(&message).Error
}

type BookingDecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected"`
}

// DecideBooking lets the owner confirm or reject a pending request. A confirm
// re-checks for overlap against other blocking bookings: two pendings over the
// same dates can coexist, but only one may be confirmed.
func DecideBooking(c *fiber.Ctx) error {
	ownerID := currentUserID(c)
	bookingID := c.Params("bookingId")

	var req BookingDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var booking models.Booking
	if err := database.DB.Preload("Car").Preload("Client").Preload("Owner").First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the owner for this booking"})
	}
	if !models.CanTransitionBooking(booking.Status, req.Status) {
		return respondServiceError(c, services.ErrInvalidTransition)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if req.Status == models.BookingStatusConfirmed {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&models.Car{}, "id = ?", booking.CarID).Error; err != nil {
				return err
			}
			var overlapping int64
			err := tx.Model(&models.Booking{}).
				Where("car_id = ? AND id <> ? AND status IN ? AND start_date <= ? AND end_date >= ?",
					booking.CarID, booking.ID,
					[]string{models.BookingStatusConfirmed, models.BookingStatusActive},
					booking.EndDate, booking.StartDate).
				Count(&overlapping).Error
			if err != nil {
				return err
			}
			if overlapping > 0 {
				return services.ErrConflict
			}
		}

		booking.Status = req.Status
		return tx.Save(&booking).Error
	})
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			return respondServiceError(c, err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update booking"})
	}

	switch req.Status {
	case models.BookingStatusConfirmed:
		go services.GenerateRentalAgreement(booking)
		go notifications.SendEmail(booking.Client.FullName, booking.Client.Email, "Your Booking is Confirmed!",
			fmt.Sprintf("<h1>Booking Confirmed</h1><p>The owner has confirmed booking %s. Safe travels!</p>", booking.Reference))
	case models.BookingStatusRejected:
		go notifications.SendEmail(booking.Client.FullName, booking.Client.Email, "Update on Your Booking Request",
			fmt.Sprintf("<h1>Booking Update</h1><p>Unfortunately the owner declined booking request %s.</p>", booking.Reference))
	}

	return c.JSON(booking)
}

// StartRental marks a confirmed booking active at key handover.
func StartRental(c *fiber.Ctx) error {
	return ownerTransition(c, models.BookingStatusActive, func(booking *models.Booking, tx *gorm.DB) error {
		return nil
	})
}

// CompleteRental closes out an active booking and credits the owner the full
// base amount; the service fee stays with the platform.
func CompleteRental(c *fiber.Ctx) error {
	return ownerTransition(c, models.BookingStatusCompleted, func(booking *models.Booking, tx *gorm.DB) error {
		return tx.Model(&models.Owner{}).
			Where("user_id = ?", booking.OwnerID).
			Update("current_balance", gorm.Expr("current_balance + ?", booking.OwnerPayout)).Error
	})
}

func ownerTransition(c *fiber.Ctx, to string, extra func(*models.Booking, *gorm.DB) error) error {
	ownerID := currentUserID(c)
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the owner for this booking"})
	}
	if !models.CanTransitionBooking(booking.Status, to) {
		return respondServiceError(c, services.ErrInvalidTransition)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		booking.Status = to
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		return extra(&booking, tx)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update booking"})
	}

	return c.JSON(booking)
}

// CancelBooking lets the client cancel any booking that has not reached a
// terminal state.
func CancelBooking(c *fiber.Ctx) error {
	clientID := currentUserID(c)
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.Preload("Owner").First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.ClientID != clientID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	if !models.CanTransitionBooking(booking.Status, models.BookingStatusCancelled) {
		return respondServiceError(c, services.ErrInvalidTransition)
	}

	booking.Status = models.BookingStatusCancelled
	if err := database.DB.Save(&booking).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel booking"})
	}

	go notifications.SendEmail(booking.Owner.FullName, booking.Owner.Email, "Booking Cancelled",
		fmt.Sprintf("<h1>Booking Cancelled</h1><p>The renter has cancelled booking %s. The dates are available again.</p>", booking.Reference))

	return c.JSON(fiber.Map{"message": "Booking cancelled", "booking": booking})
}

func GetMyBookings(c *fiber.Ctx) error {
	clientID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Preload("Car").
		Preload("Owner").
		Where("client_id = ?", clientID).
		Order("start_date desc").
		Find(&bookings)

	return c.JSON(bookings)
}

func GetOwnerBookings(c *fiber.Ctx) error {
	ownerID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Preload("Car").
		Preload("Client").
		Where("owner_id = ?", ownerID).
		Order("start_date desc").
		Find(&bookings)

	return c.JSON(bookings)
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func CreateReview(c *fiber.Ctx) error {
	clientID := currentUserID(c)
	bookingID := c.Params("bookingId")

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var newReview models.Review
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.ClientID != clientID {
			return errors.New("you are not the renter for this booking")
		}
		if booking.Status != models.BookingStatusCompleted {
			return errors.New("reviews can only be submitted for completed rentals")
		}

		var existingReview models.Review
		if err := tx.Where("booking_id = ?", bookingID).First(&existingReview).Error; err == nil {
			return errors.New("a review for this booking has already been submitted")
		}

		newReview = models.Review{
			BookingID: booking.ID,
			CarID:     booking.CarID,
			ClientID:  clientID,
			OwnerID:   booking.OwnerID,
			Rating:    req.Rating,
			Comment:   req.Comment,
		}
		if err := tx.Create(&newReview).Error; err != nil {
			return err
		}

		var carAvg struct{ Avg float64 }
		tx.Model(&models.Review{}).Where("car_id = ?", booking.CarID).Select("avg(rating) as avg").Scan(&carAvg)
		if err := tx.Model(&models.Car{}).Where("id = ?", booking.CarID).Update("avg_rating", carAvg.Avg).Error; err != nil {
			return err
		}

		var ownerAvg struct{ Avg float64 }
		tx.Model(&models.Review{}).Where("owner_id = ?", booking.OwnerID).Select("avg(rating) as avg").Scan(&ownerAvg)
		return tx.Model(&models.Owner{}).Where("user_id = ?", booking.OwnerID).Update("avg_rating", ownerAvg.Avg).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(newReview)
}

// ListCarReviews is public: renters read reviews before booking.
func ListCarReviews(c *fiber.Ctx) error {
	carID := c.Params("carId")

	var reviews []models.Review
	database.DB.Where("car_id = ?", carID).Order("created_at desc").Find(&reviews)

	return c.JSON(reviews)
}
