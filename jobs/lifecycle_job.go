package jobs

import (
	"log"
	"time"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"gorm.io/gorm"
)

// ActivateDueRentals moves confirmed bookings to active once the rental
// period has started. Owners can also do this manually at handover.
func ActivateDueRentals() {
	log.Println("Running job: ActivateDueRentals...")

	today := time.Now().Truncate(24 * time.Hour)

	var dueBookings []models.Booking
	err := database.DB.
		Where("status = ? AND start_date <= ?", models.BookingStatusConfirmed, today).
		Find(&dueBookings).Error
	if err != nil {
		log.Printf("Error checking for due rentals: %v", err)
		return
	}

	if len(dueBookings) == 0 {
		return
	}

	for _, booking := range dueBookings {
		booking.Status = models.BookingStatusActive
		database.DB.Save(&booking)
	}

	log.Printf("Activated %d rental(s).", len(dueBookings))
}

// CompleteOverdueRentals closes out active bookings whose end date has
// passed and credits the owner's balance with the payout.
func CompleteOverdueRentals() {
	log.Println("Running job: CompleteOverdueRentals...")

	today := time.Now().Truncate(24 * time.Hour)

	var overdueBookings []models.Booking
	err := database.DB.
		Where("status = ? AND end_date < ?", models.BookingStatusActive, today).
		Find(&overdueBookings).Error
	if err != nil {
		log.Printf("Error checking for overdue rentals: %v", err)
		return
	}

	if len(overdueBookings) == 0 {
		return
	}

	completed := 0
	for _, booking := range overdueBookings {
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			booking.Status = models.BookingStatusCompleted
			if err := tx.Save(&booking).Error; err != nil {
				return err
			}
			return tx.Model(&models.Owner{}).
				Where("user_id = ?", booking.OwnerID).
				Update("current_balance", gorm.Expr("current_balance + ?", booking.OwnerPayout)).Error
		})
		if err != nil {
			log.Printf("Error completing booking %s: %v", booking.ID, err)
			continue
		}
		completed++
	}

	log.Printf("Completed %d rental(s).", completed)
}
