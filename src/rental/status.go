package rental

import (
	"context"

	"cental/src/types"
)

var transitions = map[types.BookingStatus][]types.BookingStatus{
	types.BOOKING_PENDING:   {types.BOOKING_CONFIRMED, types.BOOKING_CANCELLED},
	types.BOOKING_CONFIRMED: {types.BOOKING_COMPLETED, types.BOOKING_CANCELLED},
}

// CanTransition reports whether a booking may move from one status to
// another. Completed and cancelled are terminal.
func CanTransition(from, to types.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves a booking to the given status, or fails with
// InvalidTransitionError leaving the booking unchanged.
func (e *Engine) Transition(ctx context.Context, bookingID uint, to types.BookingStatus) error {
	booking, err := e.store.FindBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !CanTransition(booking.Status, to) {
		return &InvalidTransitionError{From: booking.Status, To: to}
	}
	return e.store.UpdateBookingStatus(ctx, bookingID, to)
}
