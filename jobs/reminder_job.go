package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/davidkariuki5/car_rental/notifications"
)

func SendPickupReminders() {
	log.Println("Running job: SendPickupReminders...")

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	var upcomingBookings []models.Booking
	err := database.DB.
		Preload("Client").
		Preload("Owner").
		Preload("Car").
		Where("status = ? AND start_date = ?", models.BookingStatusConfirmed, tomorrow).
		Find(&upcomingBookings).Error
	if err != nil {
		log.Printf("Error checking for upcoming pickups: %v", err)
		return
	}

	if len(upcomingBookings) == 0 {
		return
	}

	for _, booking := range upcomingBookings {
		log.Printf("Sending pickup reminder for booking %s", booking.Reference)

		emailSubject := "Reminder: Your Rental Starts Tomorrow!"
		emailBody := fmt.Sprintf(
			"<h1>Pickup Reminder</h1><p>Hi there,</p><p>This is a friendly reminder that your rental of the %s %s starts tomorrow (%s). Booking reference: <b>%s</b>.</p>",
			booking.Car.Make,
			booking.Car.Model,
			booking.StartDate.Format("Jan 2, 2006"),
			booking.Reference,
		)

		go notifications.SendEmail(booking.Client.FullName, booking.Client.Email, emailSubject, emailBody)
		go notifications.SendEmail(booking.Owner.FullName, booking.Owner.Email, emailSubject, emailBody)
	}
}
