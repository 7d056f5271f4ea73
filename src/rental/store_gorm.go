package rental

import (
	"context"
	"errors"

	"cental/src/models"
	"cental/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore adapts a gorm connection to the engine's Store. Inside
// Atomically the car row is read with SELECT ... FOR UPDATE, serializing
// checkouts per car so the overlap re-check cannot race.
type GormStore struct {
	db      *gorm.DB
	locking bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindCar(ctx context.Context, id uint) (*models.Car, error) {
	tx := s.db.WithContext(ctx)
	if s.locking {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var car models.Car
	if err := tx.First(&car, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	return &car, nil
}

func (s *GormStore) FindBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (s *GormStore) ActiveBookingsForCar(ctx context.Context, carID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("car_id = ? AND status IN ?", carID, []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *GormStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return s.db.WithContext(ctx).Create(booking).Error
}

func (s *GormStore) UpdateBookingStatus(ctx context.Context, id uint, status types.BookingStatus) error {
	return s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Omit("Bookings").Create(payment).Error
}

func (s *GormStore) Atomically(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, locking: true})
	})
}
