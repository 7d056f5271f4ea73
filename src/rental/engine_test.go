package rental

import (
	"context"
	"sync"
	"testing"
	"time"

	"cental/src/models"
	"cental/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type memStore struct {
	mu          sync.Mutex
	cars        map[uint]*models.Car
	bookings    map[uint]*models.Booking
	payments    map[uint]*models.Payment
	nextBooking uint
	nextPayment uint
}

func newMemStore(cars ...*models.Car) *memStore {
	s := &memStore{
		cars:     map[uint]*models.Car{},
		bookings: map[uint]*models.Booking{},
		payments: map[uint]*models.Payment{},
	}
	for _, car := range cars {
		s.cars[car.ID] = car
	}
	return s
}

func (s *memStore) findCarLocked(id uint) (*models.Car, error) {
	car, ok := s.cars[id]
	if !ok {
		return nil, ErrCarNotFound
	}
	copied := *car
	return &copied, nil
}

func (s *memStore) findBookingLocked(id uint) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (s *memStore) activeBookingsLocked(carID uint) []models.Booking {
	var out []models.Booking
	for _, b := range s.bookings {
		if b.CarID != carID {
			continue
		}
		if b.Status == types.BOOKING_PENDING || b.Status == types.BOOKING_CONFIRMED {
			out = append(out, *b)
		}
	}
	return out
}

func (s *memStore) FindCar(ctx context.Context, id uint) (*models.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCarLocked(id)
}

func (s *memStore) FindBooking(ctx context.Context, id uint) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findBookingLocked(id)
}

func (s *memStore) ActiveBookingsForCar(ctx context.Context, carID uint) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeBookingsLocked(carID), nil
}

func (s *memStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBooking++
	booking.ID = s.nextBooking
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *memStore) UpdateBookingStatus(ctx context.Context, id uint, status types.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	booking.Status = status
	return nil
}

func (s *memStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPayment++
	payment.ID = s.nextPayment
	copied := *payment
	s.payments[payment.ID] = &copied
	return nil
}

// memTx runs against the parent's maps while the parent's lock is held,
// mirroring a transaction over locked rows.
type memTx struct {
	s *memStore
}

func (t *memTx) FindCar(ctx context.Context, id uint) (*models.Car, error) {
	return t.s.findCarLocked(id)
}
func (t *memTx) FindBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return t.s.findBookingLocked(id)
}
func (t *memTx) ActiveBookingsForCar(ctx context.Context, carID uint) ([]models.Booking, error) {
	return t.s.activeBookingsLocked(carID), nil
}
func (t *memTx) CreateBooking(ctx context.Context, booking *models.Booking) error {
	t.s.nextBooking++
	booking.ID = t.s.nextBooking
	copied := *booking
	t.s.bookings[booking.ID] = &copied
	return nil
}
func (t *memTx) UpdateBookingStatus(ctx context.Context, id uint, status types.BookingStatus) error {
	booking, ok := t.s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	booking.Status = status
	return nil
}
func (t *memTx) CreatePayment(ctx context.Context, payment *models.Payment) error {
	t.s.nextPayment++
	payment.ID = t.s.nextPayment
	copied := *payment
	t.s.payments[payment.ID] = &copied
	return nil
}
func (t *memTx) Atomically(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (s *memStore) Atomically(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapBookings := map[uint]*models.Booking{}
	for id, b := range s.bookings {
		copied := *b
		snapBookings[id] = &copied
	}
	snapPayments := map[uint]*models.Payment{}
	for id, p := range s.payments {
		copied := *p
		snapPayments[id] = &copied
	}
	nb, np := s.nextBooking, s.nextPayment
	if err := fn(&memTx{s: s}); err != nil {
		s.bookings = snapBookings
		s.payments = snapPayments
		s.nextBooking, s.nextPayment = nb, np
		return err
	}
	return nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type EngineTestSuite struct {
	suite.Suite

	store  *memStore
	engine *Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.store = newMemStore(
		&models.Car{ID: 1, Brand: "BMW", CarModel: "X5", PricePerDay: 10, Available: true},
		&models.Car{ID: 2, Brand: "Toyota", CarModel: "Corolla", PricePerDay: 49.99, Available: true},
		&models.Car{ID: 3, Brand: "Jeep", CarModel: "Wrangler", PricePerDay: 120, Available: false},
	)
	s.engine = NewEngine(s.store, Config{
		TaxRate:     0.14,
		ServiceFee:  5,
		Currency:    "usd",
		PaymentHold: time.Hour,
		Now:         func() time.Time { return day("2026-06-01") },
	})
}

func (s *EngineTestSuite) TestComputeTotalsThreeDays() {
	quote, err := s.engine.ComputeTotals(context.Background(), []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13")},
	})
	s.Require().NoError(err)
	s.Equal(30.00, quote.Subtotal)
	s.Equal(4.20, quote.Tax)
	s.Equal(5.00, quote.ServiceFee)
	s.Equal(39.20, quote.Total)
}

func (s *EngineTestSuite) TestComputeTotalsRoundsOnce() {
	quote, err := s.engine.ComputeTotals(context.Background(), []LineItem{
		{CarID: 2, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13")},
	})
	s.Require().NoError(err)
	s.Equal(149.97, quote.Subtotal)
	s.Equal(21.00, quote.Tax)
	s.Equal(175.97, quote.Total)
}

func (s *EngineTestSuite) TestComputeTotalsMinimumOneDay() {
	quote, err := s.engine.ComputeTotals(context.Background(), []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-10").Add(6 * time.Hour)},
	})
	s.Require().NoError(err)
	s.Equal(uint(1), quote.Lines[0].Days)
	s.Equal(10.00, quote.Subtotal)
}

func (s *EngineTestSuite) TestComputeTotalsRejectsUnavailableCar() {
	_, err := s.engine.ComputeTotals(context.Background(), []LineItem{
		{CarID: 3, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-12")},
	})
	var invalid *InvalidLineItemError
	s.Require().ErrorAs(err, &invalid)
	s.Equal(uint(3), invalid.CarID)
}

func (s *EngineTestSuite) TestComputeTotalsRejectsNonPositiveDays() {
	_, err := s.engine.ComputeTotals(context.Background(), []LineItem{
		{CarID: 1, PickupDate: day("2026-06-12"), ReturnDate: day("2026-06-10")},
	})
	var invalid *InvalidLineItemError
	s.Require().ErrorAs(err, &invalid)
}

func (s *EngineTestSuite) TestIsAvailableHalfOpenInterval() {
	ctx := context.Background()
	_, err := s.engine.Checkout(ctx, 7, []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13"), PickupLocation: "Airport"},
	})
	s.Require().NoError(err)

	ok, err := s.engine.IsAvailable(ctx, 1, day("2026-06-12"), day("2026-06-14"))
	s.Require().NoError(err)
	s.False(ok)

	// back-to-back: pickup on the previous return day is allowed
	ok, err = s.engine.IsAvailable(ctx, 1, day("2026-06-13"), day("2026-06-15"))
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.engine.IsAvailable(ctx, 1, day("2026-06-08"), day("2026-06-10"))
	s.Require().NoError(err)
	s.True(ok)
}

func (s *EngineTestSuite) TestIsAvailableIsIdempotent() {
	ctx := context.Background()
	first, err := s.engine.IsAvailable(ctx, 1, day("2026-06-10"), day("2026-06-13"))
	s.Require().NoError(err)
	for i := 0; i < 5; i++ {
		again, err := s.engine.IsAvailable(ctx, 1, day("2026-06-10"), day("2026-06-13"))
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

func (s *EngineTestSuite) TestIsAvailableUnknownCar() {
	_, err := s.engine.IsAvailable(context.Background(), 99, day("2026-06-10"), day("2026-06-13"))
	s.ErrorIs(err, ErrCarNotFound)
}

func (s *EngineTestSuite) TestCheckoutCreatesPendingBookingsAndPayment() {
	payment, err := s.engine.Checkout(context.Background(), 7, []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13"), PickupLocation: "Airport"},
		{CarID: 2, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-12"), PickupLocation: "Downtown"},
	})
	s.Require().NoError(err)
	s.Require().Len(payment.Bookings, 2)
	s.Equal(types.PAYMENT_PENDING, payment.Status)
	s.Equal(129.98, payment.Subtotal)
	s.Equal(18.20, payment.TaxAmount)
	s.Equal(153.18, payment.Total)
	s.Require().NotNil(payment.ValidUntil)
	s.Equal(day("2026-06-01").Add(time.Hour), *payment.ValidUntil)
	for _, b := range payment.Bookings {
		s.Equal(types.BOOKING_PENDING, b.Status)
		s.Require().NotNil(b.PaymentID)
		s.Equal(payment.ID, *b.PaymentID)
	}
}

func (s *EngineTestSuite) TestCheckoutAllOrNothing() {
	_, err := s.engine.Checkout(context.Background(), 7, []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13"), PickupLocation: "Airport"},
		{CarID: 99, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-12"), PickupLocation: "Airport"},
	})
	var invalid *InvalidLineItemError
	s.Require().ErrorAs(err, &invalid)
	s.Empty(s.store.bookings)
	s.Empty(s.store.payments)
}

func (s *EngineTestSuite) TestCheckoutConflictNamesOffendingItems() {
	ctx := context.Background()
	_, err := s.engine.Checkout(ctx, 7, []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13"), PickupLocation: "Airport"},
	})
	s.Require().NoError(err)

	_, err = s.engine.Checkout(ctx, 8, []LineItem{
		{CarID: 1, PickupDate: day("2026-06-12"), ReturnDate: day("2026-06-15"), PickupLocation: "Airport"},
	})
	var conflict *ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Require().Len(conflict.Items, 1)
	s.Equal(uint(1), conflict.Items[0].CarID)
	s.Len(s.store.bookings, 1)
	s.Len(s.store.payments, 1)
}

func (s *EngineTestSuite) TestCheckoutRejectsOverlapWithinCart() {
	_, err := s.engine.Checkout(context.Background(), 7, []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13"), PickupLocation: "Airport"},
		{CarID: 1, PickupDate: day("2026-06-11"), ReturnDate: day("2026-06-14"), PickupLocation: "Airport"},
	})
	var conflict *ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Empty(s.store.bookings)
	s.Empty(s.store.payments)
}

func (s *EngineTestSuite) TestCheckoutRejectsPastPickup() {
	_, err := s.engine.Checkout(context.Background(), 7, []LineItem{
		{CarID: 1, PickupDate: day("2026-05-20"), ReturnDate: day("2026-05-22"), PickupLocation: "Airport"},
	})
	var invalid *InvalidLineItemError
	s.Require().ErrorAs(err, &invalid)
	s.Contains(invalid.Reason, "past")
}

func (s *EngineTestSuite) TestCancellationFreesInventory() {
	ctx := context.Background()
	payment, err := s.engine.Checkout(ctx, 7, []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13"), PickupLocation: "Airport"},
	})
	s.Require().NoError(err)
	bookingID := payment.Bookings[0].ID

	ok, err := s.engine.IsAvailable(ctx, 1, day("2026-06-10"), day("2026-06-13"))
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.engine.Transition(ctx, bookingID, types.BOOKING_CANCELLED))

	ok, err = s.engine.IsAvailable(ctx, 1, day("2026-06-10"), day("2026-06-13"))
	s.Require().NoError(err)
	s.True(ok)
}

func (s *EngineTestSuite) TestTransitionRules() {
	ctx := context.Background()
	payment, err := s.engine.Checkout(ctx, 7, []LineItem{
		{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13"), PickupLocation: "Airport"},
	})
	s.Require().NoError(err)
	id := payment.Bookings[0].ID

	s.Require().NoError(s.engine.Transition(ctx, id, types.BOOKING_CONFIRMED))

	var invalid *InvalidTransitionError
	err = s.engine.Transition(ctx, id, types.BOOKING_CONFIRMED)
	s.Require().ErrorAs(err, &invalid)

	s.Require().NoError(s.engine.Transition(ctx, id, types.BOOKING_COMPLETED))

	err = s.engine.Transition(ctx, id, types.BOOKING_CANCELLED)
	s.Require().ErrorAs(err, &invalid)
	booking, err := s.store.FindBooking(ctx, id)
	s.Require().NoError(err)
	s.Equal(types.BOOKING_COMPLETED, booking.Status)
}

func (s *EngineTestSuite) TestConcurrentCheckoutsSingleWinner() {
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.engine.Checkout(ctx, uint(10+i), []LineItem{
				{CarID: 1, PickupDate: day("2026-06-10"), ReturnDate: day("2026-06-13"), PickupLocation: "Airport"},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *ConflictError
		if assert.ErrorAs(s.T(), err, &conflict) {
			conflicted++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, conflicted)
	s.Len(s.store.bookings, 1)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(types.BOOKING_PENDING, types.BOOKING_CONFIRMED))
	assert.True(t, CanTransition(types.BOOKING_PENDING, types.BOOKING_CANCELLED))
	assert.True(t, CanTransition(types.BOOKING_CONFIRMED, types.BOOKING_COMPLETED))
	assert.True(t, CanTransition(types.BOOKING_CONFIRMED, types.BOOKING_CANCELLED))
	assert.False(t, CanTransition(types.BOOKING_COMPLETED, types.BOOKING_CANCELLED))
	assert.False(t, CanTransition(types.BOOKING_CANCELLED, types.BOOKING_PENDING))
	assert.False(t, CanTransition(types.BOOKING_PENDING, types.BOOKING_COMPLETED))
}

func TestOverlapsHalfOpen(t *testing.T) {
	require.False(t, Overlaps(day("2026-06-10"), day("2026-06-13"), day("2026-06-13"), day("2026-06-15")))
	require.False(t, Overlaps(day("2026-06-13"), day("2026-06-15"), day("2026-06-10"), day("2026-06-13")))
	require.True(t, Overlaps(day("2026-06-10"), day("2026-06-13"), day("2026-06-12"), day("2026-06-14")))
	require.True(t, Overlaps(day("2026-06-10"), day("2026-06-13"), day("2026-06-11"), day("2026-06-12")))
}

func TestDays(t *testing.T) {
	assert.Equal(t, uint(3), Days(day("2026-06-10"), day("2026-06-13")))
	assert.Equal(t, uint(1), Days(day("2026-06-10"), day("2026-06-11")))
	assert.Equal(t, uint(1), Days(day("2026-06-10"), day("2026-06-10").Add(6*time.Hour)))
}
