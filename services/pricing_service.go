package services

import (
	"math"
	"time"

	"github.com/davidkariuki5/car_rental/models"
)

// Commission rates per owner subscription tier. Unrecognized or missing tiers
// charge the basic rate so a bad subscription row can never undercharge.
const (
	commissionBasic    = 0.15
	commissionStandard = 0.10
	commissionPremium  = 0.05
)

type Quote struct {
	Days        int     `json:"days"`
	BasePrice   float64 `json:"base_price"`
	ServiceFee  float64 `json:"service_fee"`
	TotalPrice  float64 `json:"total_price"`
	OwnerPayout float64 `json:"owner_payout"`
}

func CommissionRate(tier string) float64 {
	switch tier {
	case models.TierStandard:
		return commissionStandard
	case models.TierPremium:
		return commissionPremium
	default:
		return commissionBasic
	}
}

// RentalDays returns the whole-day length of the range, rounding partial days
// up. The range must be strictly increasing; a zero-length rental is invalid.
func RentalDays(start, end time.Time) (int, error) {
	if !start.Before(end) {
		return 0, NewValidationError("end_date", "must be after start_date")
	}
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days, nil
}

// CalculatePrice prices a rental. The service fee is charged to the renter on
// top of the base rate; the owner always receives the full base amount. The
// fee is rounded to the nearest whole currency unit, which is the platform's
// stated pricing policy.
func CalculatePrice(basePricePerDay float64, days int, ownerTier string) (Quote, error) {
	if basePricePerDay <= 0 {
		return Quote{}, NewValidationError("price_per_day", "must be positive")
	}
	if days < 1 {
		return Quote{}, NewValidationError("days", "rental must span at least one day")
	}

	base := basePricePerDay * float64(days)
	fee := math.Round(base * CommissionRate(ownerTier))

	return Quote{
		Days:        days,
		BasePrice:   base,
		ServiceFee:  fee,
		TotalPrice:  base + fee,
		OwnerPayout: base,
	}, nil
}

// QuoteForRange combines day counting and pricing for a candidate date range.
func QuoteForRange(basePricePerDay float64, start, end time.Time, ownerTier string) (Quote, error) {
	days, err := RentalDays(start, end)
	if err != nil {
		return Quote{}, err
	}
	return CalculatePrice(basePricePerDay, days, ownerTier)
}
