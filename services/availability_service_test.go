package services

import (
	"testing"
	"time"

	"github.com/davidkariuki5/car_rental/models"
	"github.com/stretchr/testify/assert"
)

func mustDate(t *testing.T, d string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", d)
	if err != nil {
		t.Fatalf("bad test date %q: %v", d, err)
	}
	return parsed
}

func TestRangesOverlap(t *testing.T) {
	d := func(s string) time.Time { return mustDate(t, s) }

	cases := []struct {
		name    string
		aStart  string
		aEnd    string
		bStart  string
		bEnd    string
		overlap bool
	}{
		{"disjoint before", "2024-06-01", "2024-06-05", "2024-06-10", "2024-06-15", false},
		{"disjoint after", "2024-06-16", "2024-06-20", "2024-06-10", "2024-06-15", false},
		{"candidate straddles start", "2024-06-08", "2024-06-12", "2024-06-10", "2024-06-15", true},
		{"candidate straddles end", "2024-06-14", "2024-06-20", "2024-06-10", "2024-06-15", true},
		{"candidate inside", "2024-06-11", "2024-06-14", "2024-06-10", "2024-06-15", true},
		{"candidate contains", "2024-06-08", "2024-06-18", "2024-06-10", "2024-06-15", true},
		{"identical", "2024-06-10", "2024-06-15", "2024-06-10", "2024-06-15", true},
		{"shared endpoint blocks", "2024-06-15", "2024-06-20", "2024-06-10", "2024-06-15", true},
		{"day after endpoint is free", "2024-06-16", "2024-06-20", "2024-06-10", "2024-06-15", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RangesOverlap(d(tc.aStart), d(tc.aEnd), d(tc.bStart), d(tc.bEnd))
			assert.Equal(t, tc.overlap, got)
		})
	}
}

func TestHasBlockingOverlap(t *testing.T) {
	d := func(s string) time.Time { return mustDate(t, s) }

	existing := []models.Booking{
		{Status: models.BookingStatusConfirmed, StartDate: d("2024-06-10"), EndDate: d("2024-06-15")},
	}

	assert.True(t, HasBlockingOverlap(existing, d("2024-06-14"), d("2024-06-20")))
	assert.True(t, HasBlockingOverlap(existing, d("2024-06-15"), d("2024-06-20")),
		"same-day turnover counts as a conflict")
	assert.False(t, HasBlockingOverlap(existing, d("2024-06-16"), d("2024-06-20")))

	// Only confirmed and active bookings hold their dates.
	nonBlocking := []models.Booking{
		{Status: models.BookingStatusPending, StartDate: d("2024-06-10"), EndDate: d("2024-06-15")},
		{Status: models.BookingStatusCancelled, StartDate: d("2024-06-10"), EndDate: d("2024-06-15")},
		{Status: models.BookingStatusRejected, StartDate: d("2024-06-10"), EndDate: d("2024-06-15")},
		{Status: models.BookingStatusCompleted, StartDate: d("2024-06-10"), EndDate: d("2024-06-15")},
	}
	assert.False(t, HasBlockingOverlap(nonBlocking, d("2024-06-12"), d("2024-06-14")))

	active := []models.Booking{
		{Status: models.BookingStatusActive, StartDate: d("2024-06-10"), EndDate: d("2024-06-15")},
	}
	assert.True(t, HasBlockingOverlap(active, d("2024-06-12"), d("2024-06-14")))
}
