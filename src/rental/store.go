package rental

import (
	"context"
	"time"

	"cental/src/models"
	"cental/src/types"
)

// LineItem is one car plus date range inside a checkout submission. The
// range is half-open: the return date itself is not occupied.
type LineItem struct {
	CarID          uint
	PickupDate     time.Time
	ReturnDate     time.Time
	PickupLocation string
}

// Store is the persistence surface the engine needs. Implementations must
// serialize booking creation per car inside Atomically so that two
// concurrent checkouts for overlapping ranges cannot both commit.
type Store interface {
	FindCar(ctx context.Context, id uint) (*models.Car, error)
	FindBooking(ctx context.Context, id uint) (*models.Booking, error)
	ActiveBookingsForCar(ctx context.Context, carID uint) ([]models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id uint, status types.BookingStatus) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	Atomically(ctx context.Context, fn func(tx Store) error) error
}
