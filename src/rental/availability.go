package rental

import (
	"context"
	"time"

	"cental/src/models"
)

// Overlaps reports whether the half-open ranges [aPickup, aReturn) and
// [bPickup, bReturn) intersect.
func Overlaps(aPickup, aReturn, bPickup, bReturn time.Time) bool {
	return aPickup.Before(bReturn) && bPickup.Before(aReturn)
}

func conflictsWith(bookings []models.Booking, pickup, ret time.Time) bool {
	for _, b := range bookings {
		if Overlaps(b.PickupDate, b.ReturnDate, pickup, ret) {
			return true
		}
	}
	return false
}

// IsAvailable reports whether the car is free of pending or confirmed
// bookings over [pickup, ret). Read-only.
func (e *Engine) IsAvailable(ctx context.Context, carID uint, pickup, ret time.Time) (bool, error) {
	if _, err := e.store.FindCar(ctx, carID); err != nil {
		return false, err
	}
	bookings, err := e.store.ActiveBookingsForCar(ctx, carID)
	if err != nil {
		return false, err
	}
	return !conflictsWith(bookings, pickup, ret), nil
}

func (e *Engine) validateDates(pickup, ret time.Time) string {
	if !pickup.Before(ret) {
		return "pickup date must precede return date"
	}
	today := e.now().Truncate(24 * time.Hour)
	if pickup.Before(today) {
		return "pickup date is in the past"
	}
	return ""
}
