package rental

import (
	"context"
	"time"

	"cental/src/config"
	"cental/src/models"
	"cental/src/types"
)

type Config struct {
	TaxRate     float64
	ServiceFee  float64
	Currency    string
	PaymentHold time.Duration
	Now         func() time.Time
}

// Engine combines the availability check, the price calculator and the
// booking state machine behind a single checkout entry point.
type Engine struct {
	store      Store
	taxRate    float64
	serviceFee float64
	currency   string
	hold       time.Duration
	now        func() time.Time
}

func NewEngine(store Store, cfg Config) *Engine {
	e := &Engine{
		store:      store,
		taxRate:    cfg.TaxRate,
		serviceFee: cfg.ServiceFee,
		currency:   cfg.Currency,
		hold:       cfg.PaymentHold,
		now:        cfg.Now,
	}
	if e.taxRate == 0 {
		e.taxRate = config.GetTaxRate()
	}
	if e.serviceFee == 0 {
		e.serviceFee = config.GetServiceFee()
	}
	if e.currency == "" {
		e.currency = config.GetCurrency()
	}
	if e.hold == 0 {
		e.hold = config.GetPaymentHold()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Checkout creates one pending booking per line item and a payment record
// linking them. All-or-nothing: any validation failure or date conflict
// aborts the attempt with nothing created. Conflict detection runs again
// inside the store transaction to close the race with a concurrent
// checkout for the same car.
func (e *Engine) Checkout(ctx context.Context, userID uint, items []LineItem) (*models.Payment, error) {
	if len(items) == 0 {
		return nil, &InvalidLineItemError{Index: 0, Reason: "empty cart"}
	}
	for i, item := range items {
		if reason := e.validateDates(item.PickupDate, item.ReturnDate); reason != "" {
			return nil, &InvalidLineItemError{Index: i, CarID: item.CarID, Reason: reason}
		}
	}

	var payment *models.Payment
	err := e.store.Atomically(ctx, func(tx Store) error {
		lines := make([]QuoteLine, 0, len(items))
		conflicts := []LineItem{}
		for i, item := range items {
			car, err := tx.FindCar(ctx, item.CarID)
			if err != nil {
				return &InvalidLineItemError{Index: i, CarID: item.CarID, Reason: "car not found"}
			}
			if !car.Available {
				return &InvalidLineItemError{Index: i, CarID: item.CarID, Reason: "car is unavailable"}
			}
			active, err := tx.ActiveBookingsForCar(ctx, item.CarID)
			if err != nil {
				return err
			}
			if conflictsWith(active, item.PickupDate, item.ReturnDate) {
				conflicts = append(conflicts, item)
				continue
			}
			for _, other := range items[:i] {
				if other.CarID == item.CarID && Overlaps(other.PickupDate, other.ReturnDate, item.PickupDate, item.ReturnDate) {
					conflicts = append(conflicts, item)
					break
				}
			}
			days := Days(item.PickupDate, item.ReturnDate)
			lines = append(lines, QuoteLine{
				CarID:       car.ID,
				Days:        days,
				PricePerDay: car.PricePerDay,
				LineTotal:   round2(car.PricePerDay * float64(days)),
			})
		}
		if len(conflicts) > 0 {
			return &ConflictError{Items: conflicts}
		}

		totals := e.totalsOf(lines)
		validUntil := e.now().Add(e.hold)
		payment = &models.Payment{
			UserID:     userID,
			Status:     types.PAYMENT_PENDING,
			Subtotal:   totals.Subtotal,
			TaxAmount:  totals.Tax,
			ServiceFee: totals.ServiceFee,
			Total:      totals.Total,
			Currency:   e.currency,
			ValidUntil: &validUntil,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}
		for i, item := range items {
			booking := models.Booking{
				CarID:          item.CarID,
				UserID:         userID,
				PaymentID:      &payment.ID,
				Status:         types.BOOKING_PENDING,
				PickupDate:     item.PickupDate,
				ReturnDate:     item.ReturnDate,
				PickupLocation: item.PickupLocation,
				Days:           lines[i].Days,
				PricePerDay:    lines[i].PricePerDay,
				LineTotal:      lines[i].LineTotal,
				Currency:       e.currency,
			}
			if err := tx.CreateBooking(ctx, &booking); err != nil {
				return err
			}
			payment.Bookings = append(payment.Bookings, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
