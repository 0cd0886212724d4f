package services

import (
	"errors"
	"time"

	"github.com/davidkariuki5/car_rental/database"
	"github.com/davidkariuki5/car_rental/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RangesOverlap applies the inclusive-endpoint interval test: a booking that
// ends on the 15th still blocks a rental starting on the 15th. Same-day
// turnover is deliberately treated as a conflict.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// HasBlockingOverlap reports whether any booking that holds its dates
// (confirmed or active) overlaps the candidate range.
func HasBlockingOverlap(bookings []models.Booking, start, end time.Time) bool {
	for _, b := range bookings {
		if !models.BlocksAvailability(b.Status) {
			continue
		}
		if RangesOverlap(start, end, b.StartDate, b.EndDate) {
			return true
		}
	}
	return false
}

// CheckCarAvailability reports whether a car is free for the candidate range.
// Pure read: pending, rejected, cancelled and completed bookings do not block.
func CheckCarAvailability(carID uuid.UUID, start, end time.Time) (bool, error) {
	return checkCarAvailability(database.DB, carID, start, end)
}

// CheckCarAvailabilityTx is the same check bound to an open transaction, used
// to re-validate at booking-creation time after the blocking rows are locked.
func CheckCarAvailabilityTx(tx *gorm.DB, carID uuid.UUID, start, end time.Time) (bool, error) {
	return checkCarAvailability(tx, carID, start, end)
}

func checkCarAvailability(db *gorm.DB, carID uuid.UUID, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, NewValidationError("end_date", "must be after start_date")
	}

	var car models.Car
	if err := db.Select("id").First(&car, "id = ?", carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	var count int64
	err := db.Model(&models.Booking{}).
		Where("car_id = ? AND status IN ? AND start_date <= ? AND end_date >= ?",
			carID,
			[]string{models.BookingStatusConfirmed, models.BookingStatusActive},
			end, start).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// OwnerTier resolves the commission tier from the owner's active subscription.
// Owners without one pay the basic rate.
func OwnerTier(ownerID uuid.UUID) string {
	var sub models.Subscription
	err := database.DB.
		Where("owner_id = ? AND status = ?", ownerID, "active").
		First(&sub).Error
	if err != nil {
		return models.TierBasic
	}
	return sub.Tier
}
