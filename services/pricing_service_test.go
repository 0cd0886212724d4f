package services

import (
	"testing"
	"time"

	"github.com/davidkariuki5/car_rental/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionRate(t *testing.T) {
	assert.Equal(t, 0.15, CommissionRate(models.TierBasic))
	assert.Equal(t, 0.10, CommissionRate(models.TierStandard))
	assert.Equal(t, 0.05, CommissionRate(models.TierPremium))
	assert.Equal(t, 0.15, CommissionRate("gold"), "unknown tiers fall back to basic")
	assert.Equal(t, 0.15, CommissionRate(""), "missing tier falls back to basic")
}

func TestCalculatePriceStandardTier(t *testing.T) {
	quote, err := CalculatePrice(50, 3, models.TierStandard)
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Days)
	assert.Equal(t, 150.0, quote.BasePrice)
	assert.Equal(t, 15.0, quote.ServiceFee)
	assert.Equal(t, 165.0, quote.TotalPrice)
	assert.Equal(t, 150.0, quote.OwnerPayout)
}

func TestCalculatePriceIdentity(t *testing.T) {
	cases := []struct {
		price float64
		days  int
		tier  string
	}{
		{50, 3, models.TierStandard},
		{33.33, 7, models.TierBasic},
		{120, 1, models.TierPremium},
		{45.50, 14, "unknown"},
		{99.99, 30, models.TierStandard},
	}

	for _, tc := range cases {
		quote, err := CalculatePrice(tc.price, tc.days, tc.tier)
		require.NoError(t, err)

		assert.Equal(t, quote.TotalPrice, quote.OwnerPayout+quote.ServiceFee,
			"renter total must equal owner payout plus platform fee")
		assert.Equal(t, quote.OwnerPayout, tc.price*float64(tc.days),
			"owner always receives the full base amount")
	}
}

func TestCalculatePriceCommissionOrdering(t *testing.T) {
	basic, err := CalculatePrice(80, 5, models.TierBasic)
	require.NoError(t, err)
	standard, err := CalculatePrice(80, 5, models.TierStandard)
	require.NoError(t, err)
	premium, err := CalculatePrice(80, 5, models.TierPremium)
	require.NoError(t, err)

	assert.Greater(t, basic.ServiceFee, standard.ServiceFee)
	assert.Greater(t, standard.ServiceFee, premium.ServiceFee)
	assert.Equal(t, basic.OwnerPayout, premium.OwnerPayout,
		"tier only moves the renter-side fee, never the payout")
}

func TestCalculatePriceValidation(t *testing.T) {
	var vErr *ValidationError

	_, err := CalculatePrice(0, 3, models.TierBasic)
	require.ErrorAs(t, err, &vErr)

	_, err = CalculatePrice(-10, 3, models.TierBasic)
	require.ErrorAs(t, err, &vErr)

	_, err = CalculatePrice(50, 0, models.TierBasic)
	require.ErrorAs(t, err, &vErr)
}

func TestRentalDays(t *testing.T) {
	day := func(d string) time.Time {
		parsed, err := time.Parse("2006-01-02", d)
		require.NoError(t, err)
		return parsed
	}

	days, err := RentalDays(day("2024-06-10"), day("2024-06-13"))
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	days, err = RentalDays(day("2024-06-10"), day("2024-06-11"))
	require.NoError(t, err)
	assert.Equal(t, 1, days)

	// Partial days round up.
	days, err = RentalDays(day("2024-06-10"), day("2024-06-11").Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, days)

	_, err = RentalDays(day("2024-06-10"), day("2024-06-10"))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = RentalDays(day("2024-06-13"), day("2024-06-10"))
	require.ErrorAs(t, err, &vErr)
}

func TestQuoteForRange(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2024-06-10")
	end, _ := time.Parse("2006-01-02", "2024-06-13")

	quote, err := QuoteForRange(50, start, end, models.TierStandard)
	require.NoError(t, err)
	assert.Equal(t, 165.0, quote.TotalPrice)

	_, err = QuoteForRange(50, end, start, models.TierStandard)
	require.Error(t, err)
}
