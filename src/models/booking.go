package models

import (
	"cental/src/types"
	"time"
)

type Booking struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	CarID          uint                `json:"car_id,omitempty"`
	UserID         uint                `json:"user_id,omitempty"`
	PaymentID      *uint               `json:"payment_id,omitempty"`
	Status         types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`
	PickupDate     time.Time           `json:"pickup_date,omitempty"`
	ReturnDate     time.Time           `json:"return_date,omitempty"`
	PickupLocation string              `json:"pickup_location,omitempty"`
	Days           uint                `json:"days,omitempty"`
	PricePerDay    float64             `json:"price_per_day,omitempty"`
	LineTotal      float64             `json:"line_total,omitempty"`
	Currency       string              `json:"currency,omitempty"`
	VoucherURL     string              `json:"voucher_url,omitempty"`

	Car     *Car     `gorm:"foreignKey:car_id" json:"car,omitempty"`
	User    *User    `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Payment *Payment `gorm:"foreignKey:payment_id" json:"payment,omitempty"`

	types.Timestamps
}
