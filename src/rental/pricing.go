package rental

import (
	"context"
	"math"
	"time"
)

type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	ServiceFee float64 `json:"service_fee"`
	Total      float64 `json:"total"`
}

type QuoteLine struct {
	CarID       uint    `json:"car_id"`
	Days        uint    `json:"days"`
	PricePerDay float64 `json:"price_per_day"`
	LineTotal   float64 `json:"line_total"`
}

type Quote struct {
	Lines []QuoteLine `json:"lines"`
	Totals
}

// Days counts whole days in [pickup, ret), never less than 1.
func Days(pickup, ret time.Time) uint {
	days := uint(ret.Sub(pickup).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// round2 rounds half-up to two decimal places. Applied once per monetary
// figure, never during accumulation.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func (e *Engine) totalsOf(lines []QuoteLine) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.PricePerDay * float64(line.Days)
	}
	return Totals{
		Subtotal:   round2(subtotal),
		Tax:        round2(subtotal * e.taxRate),
		ServiceFee: round2(e.serviceFee),
		Total:      round2(subtotal + subtotal*e.taxRate + e.serviceFee),
	}
}

// ComputeTotals prices a cart. Fails with InvalidLineItemError when a line
// references a missing or unavailable car or a non-positive day count.
func (e *Engine) ComputeTotals(ctx context.Context, items []LineItem) (*Quote, error) {
	lines := make([]QuoteLine, 0, len(items))
	for i, item := range items {
		if !item.PickupDate.Before(item.ReturnDate) {
			return nil, &InvalidLineItemError{Index: i, CarID: item.CarID, Reason: "non-positive day count"}
		}
		car, err := e.store.FindCar(ctx, item.CarID)
		if err != nil {
			return nil, &InvalidLineItemError{Index: i, CarID: item.CarID, Reason: "car not found"}
		}
		if !car.Available {
			return nil, &InvalidLineItemError{Index: i, CarID: item.CarID, Reason: "car is unavailable"}
		}
		days := Days(item.PickupDate, item.ReturnDate)
		lines = append(lines, QuoteLine{
			CarID:       car.ID,
			Days:        days,
			PricePerDay: car.PricePerDay,
			LineTotal:   round2(car.PricePerDay * float64(days)),
		})
	}
	return &Quote{Lines: lines, Totals: e.totalsOf(lines)}, nil
}
