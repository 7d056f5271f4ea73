package models

import (
	"cental/src/types"
	"time"
)

type Payment struct {
	ID uint `gorm:"primarykey" json:"id"`

	UserID      uint                `json:"user_id,omitempty"`
	Status      types.PaymentStatus `gorm:"default:'pending'" json:"status,omitempty"`
	Subtotal    float64             `json:"subtotal,omitempty"`
	TaxAmount   float64             `json:"tax_amount,omitempty"`
	ServiceFee  float64             `json:"service_fee,omitempty"`
	Total       float64             `json:"total,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	ValidUntil  *time.Time          `json:"valid_until,omitempty"`
	SourceName  string              `json:"-"`
	SourceValue string              `json:"-"`
	ReferenceID string              `json:"-"`
	Metadata    types.JSONB         `gorm:"type:jsonb" json:"-"`

	User     *User     `gorm:"foreignKey:user_id" json:"-"`
	Bookings []Booking `gorm:"foreignKey:payment_id" json:"bookings,omitempty"`

	types.Timestamps
}
