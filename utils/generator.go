package utils

import (
	"math/rand"
	"time"

	"github.com/davidkariuki5/car_rental/models"
	"gorm.io/gorm"
)

const bookingReferenceLength = 10
const letterBytes = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateBookingReference returns a short human-readable code unique across
// bookings, shown on the rental agreement and in support conversations.
func GenerateBookingReference(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, bookingReferenceLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := "BK" + string(b[:bookingReferenceLength-2])

		var booking models.Booking
		err := tx.Where("reference = ?", code).First(&booking).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}
