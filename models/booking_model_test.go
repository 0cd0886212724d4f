package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionBooking(t *testing.T) {
	allowed := []struct{ from, to string }{
		{BookingStatusPending, BookingStatusConfirmed},
		{BookingStatusPending, BookingStatusRejected},
		{BookingStatusPending, BookingStatusCancelled},
		{BookingStatusConfirmed, BookingStatusActive},
		{BookingStatusConfirmed, BookingStatusCancelled},
		{BookingStatusActive, BookingStatusCompleted},
		{BookingStatusActive, BookingStatusCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransitionBooking(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to string }{
		{BookingStatusPending, BookingStatusActive},
		{BookingStatusPending, BookingStatusCompleted},
		{BookingStatusConfirmed, BookingStatusCompleted},
		{BookingStatusConfirmed, BookingStatusRejected},
		{BookingStatusActive, BookingStatusConfirmed},
		{BookingStatusCompleted, BookingStatusActive},
		{BookingStatusCancelled, BookingStatusConfirmed},
		{BookingStatusRejected, BookingStatusConfirmed},
		{"bogus", BookingStatusConfirmed},
	}
	for _, tc := range denied {
		assert.False(t, CanTransitionBooking(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestIsTerminalBookingStatus(t *testing.T) {
	assert.True(t, IsTerminalBookingStatus(BookingStatusCompleted))
	assert.True(t, IsTerminalBookingStatus(BookingStatusCancelled))
	assert.True(t, IsTerminalBookingStatus(BookingStatusRejected))
	assert.False(t, IsTerminalBookingStatus(BookingStatusPending))
	assert.False(t, IsTerminalBookingStatus(BookingStatusConfirmed))
	assert.False(t, IsTerminalBookingStatus(BookingStatusActive))
}

func TestBlocksAvailability(t *testing.T) {
	assert.True(t, BlocksAvailability(BookingStatusConfirmed))
	assert.True(t, BlocksAvailability(BookingStatusActive))
	assert.False(t, BlocksAvailability(BookingStatusPending))
	assert.False(t, BlocksAvailability(BookingStatusCompleted))
	assert.False(t, BlocksAvailability(BookingStatusCancelled))
	assert.False(t, BlocksAvailability(BookingStatusRejected))
}
