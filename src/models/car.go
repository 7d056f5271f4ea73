package models

import (
	"cental/src/types"
)

type Car struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	Brand        string           `json:"brand,omitempty"`
	CarModel     string           `gorm:"column:model" json:"model,omitempty"`
	Year         uint             `json:"year,omitempty"`
	Category     string           `json:"category,omitempty"`
	Seats        uint8            `json:"seats,omitempty"`
	Doors        uint8            `json:"doors,omitempty"`
	Transmission string           `json:"transmission,omitempty"`
	FuelType     string           `json:"fuel_type,omitempty"`
	Mileage      string           `json:"mileage,omitempty"`
	Description  string           `json:"description,omitempty"`
	PricePerDay  float64          `json:"price_per_day"`
	Available    bool             `gorm:"default:true" json:"available"`
	Slug         string           `gorm:"uniqueIndex" json:"slug,omitempty"`
	Images       types.JSONBArray `gorm:"type:jsonb" json:"images,omitempty"`
	CreatedBy    uint             `json:"created_by,omitempty"`

	Creator  User      `gorm:"foreignKey:created_by" json:"-"`
	Bookings []Booking `gorm:"foreignKey:car_id" json:"bookings,omitempty"`

	types.Timestamps
}
