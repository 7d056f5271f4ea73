package rental

import (
	"errors"
	"fmt"
	"strings"

	"cental/src/types"
)

var (
	ErrCarNotFound     = errors.New("car not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// ConflictError reports the line items whose date ranges collided with an
// active booking, or with another item in the same cart.
type ConflictError struct {
	Items []LineItem
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, fmt.Sprintf("car=%d %s..%s", item.CarID, item.PickupDate.Format("2006-01-02"), item.ReturnDate.Format("2006-01-02")))
	}
	return fmt.Sprintf("car no longer available for the selected dates: %s", strings.Join(parts, ", "))
}

type InvalidLineItemError struct {
	Index  int
	CarID  uint
	Reason string
}

func (e *InvalidLineItemError) Error() string {
	return fmt.Sprintf("invalid line item %d (car=%d): %s", e.Index, e.CarID, e.Reason)
}

type InvalidTransitionError struct {
	From types.BookingStatus
	To   types.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition from %s to %s", e.From, e.To)
}
